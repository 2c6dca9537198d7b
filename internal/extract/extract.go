// Package extract identifies typed entity mentions within chunk text using
// deterministic heuristics. See docs/ARCHITECTURE § Extraction.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// Confidence assigned by each heuristic, strongest signal first.
const (
	confLabel        = 0.98
	confGazetteer    = 0.95
	confRoleLead     = 0.90
	confOrgCue       = 0.85
	confLocationCue  = 0.80
	confItemCue      = 0.80
	confCharVerb     = 0.75
	confLocationPrep = 0.70
	confDefault      = 0.50
)

// labelRe matches explicit tag lines such as "Character: Elara" or
// "Location - Ravenwood". The tag word doubles as the mention type.
var labelRe = regexp.MustCompile(`(?i)^(character|npc|location|place|organization|faction|item|artifact)\s*[:\-]\s*(\S.*)$`)

// Extractor finds entity mentions in text. It is stateless after
// construction and safe for concurrent use.
type Extractor struct {
	minConfidence float64
	gazetteer     map[string]types.EntityType
	roleKeywords  map[string]bool
}

// New builds an Extractor from configuration. Gazetteer names are matched
// case-insensitively against whole spans; a name listed under two types
// resolves to the higher-priority type.
func New(cfg types.ExtractConfig) (*Extractor, error) {
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence %v out of range [0,1]", cfg.MinConfidence)
	}

	e := &Extractor{
		minConfidence: cfg.MinConfidence,
		gazetteer:     make(map[string]types.EntityType),
		roleKeywords:  make(map[string]bool),
	}

	keywords := defaultRoleKeywords
	if len(cfg.RoleKeywords) > 0 {
		keywords = cfg.RoleKeywords
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			e.roleKeywords[kw] = true
		}
	}

	type entry struct {
		name string
		typ  types.EntityType
	}
	var entries []entry
	for label, names := range cfg.Gazetteer {
		t, err := types.ParseEntityType(label)
		if err != nil {
			return nil, fmt.Errorf("gazetteer: %w", err)
		}
		for _, name := range names {
			key := normalizeKey(name)
			if key == "" {
				return nil, fmt.Errorf("gazetteer: empty name under %q", label)
			}
			entries = append(entries, entry{name: key, typ: t})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}
		return entries[i].typ.Priority() < entries[j].typ.Priority()
	})
	for _, en := range entries {
		if _, ok := e.gazetteer[en.name]; !ok {
			e.gazetteer[en.name] = en.typ
		}
	}

	return e, nil
}

// Extract returns the entity mentions found in text, in reading order.
// The same text always yields the same mentions. Mentions below the
// configured confidence threshold are dropped.
func (e *Extractor) Extract(text string) []types.Mention {
	lines := strings.Split(text, "\n")

	// First pass: every word seen capitalized away from a sentence start.
	// Membership makes a bare sentence-initial word eligible as a name.
	midCap := make(map[string]bool)
	for _, line := range lines {
		if _, ok := parseLabelLine(line); ok {
			continue
		}
		for _, sentence := range splitSentences(line) {
			words, _ := tokenize(sentence)
			for i := 1; i < len(words); i++ {
				if nameToken(words[i]) {
					midCap[words[i]] = true
				}
			}
		}
	}

	var mentions []types.Mention
	for _, line := range lines {
		if m, ok := parseLabelLine(line); ok {
			if m.Confidence >= e.minConfidence {
				mentions = append(mentions, m)
			}
			continue
		}
		for _, sentence := range splitSentences(line) {
			words, poss := tokenize(sentence)
			for _, sp := range findSpans(words) {
				t, conf, ok := e.classify(words, poss, sp, midCap)
				if !ok || conf < e.minConfidence {
					continue
				}
				mentions = append(mentions, types.Mention{
					Surface:    strings.Join(words[sp.start:sp.end], " "),
					Type:       t,
					Confidence: conf,
				})
			}
		}
	}
	return mentions
}

// span marks a candidate name as a token range within one sentence.
type span struct {
	start, end int
}

// classify scores a span against every heuristic and returns the winning
// type and confidence. Ties go to the higher-priority type. The third
// return is false when no heuristic accepts the span.
func (e *Extractor) classify(words []string, poss []bool, sp span, midCap map[string]bool) (types.EntityType, float64, bool) {
	spanWords := words[sp.start:sp.end]
	single := len(spanWords) == 1
	first := strings.ToLower(spanWords[0])
	last := strings.ToLower(spanWords[len(spanWords)-1])

	// A title with no name after it ("the Queen decreed") is not a mention.
	if single && e.roleKeywords[first] {
		return "", 0, false
	}

	type candidate struct {
		typ  types.EntityType
		conf float64
	}
	var cands []candidate

	if t, ok := e.gazetteer[normalizeKey(strings.Join(spanWords, " "))]; ok {
		cands = append(cands, candidate{t, confGazetteer})
	}
	if !single && e.roleKeywords[first] {
		cands = append(cands, candidate{types.EntityCharacter, confRoleLead})
	}
	if orgNouns[last] || (!single && orgNouns[first]) {
		cands = append(cands, candidate{types.EntityOrganization, confOrgCue})
	}
	if locationSuffixes[last] || (!single && locationSuffixes[first]) {
		cands = append(cands, candidate{types.EntityLocation, confLocationCue})
	}
	if itemNouns[last] {
		cands = append(cands, candidate{types.EntityItem, confItemCue})
	}

	if next, ok := tokenAt(words, sp.end); ok {
		ln := strings.ToLower(next)
		if next == ln && orgNouns[ln] && !poss[sp.end-1] {
			// "the Highwind fleet": the lowercase noun names the kind, the
			// capitalized span names the organization. A possessive span
			// ("Elara's fleet") is ownership, not a name.
			cands = append(cands, candidate{types.EntityOrganization, confOrgCue})
		}
		if locationVerbs[ln] {
			cands = append(cands, candidate{types.EntityLocation, confLocationCue})
		}
		if ln == "is" || ln == "was" {
			if nn, ok := tokenAt(words, sp.end+1); ok && passiveLocationVerbs[strings.ToLower(nn)] {
				cands = append(cands, candidate{types.EntityLocation, confLocationCue})
			}
		}
		if charVerbs[ln] {
			cands = append(cands, candidate{types.EntityCharacter, confCharVerb})
		}
	}

	if prev, ok := tokenAt(words, sp.start-1); ok {
		lp := strings.ToLower(prev)
		if lp == "the" || lp == "a" || lp == "an" {
			lp = ""
			if pp, ok := tokenAt(words, sp.start-2); ok {
				lp = strings.ToLower(pp)
			}
		}
		if locationPrepositions[lp] {
			cands = append(cands, candidate{types.EntityLocation, confLocationPrep})
		}
		if itemVerbs[lp] {
			cands = append(cands, candidate{types.EntityItem, confItemCue})
		}
	}

	// Bare capitalized spans default to Character. A single word opening a
	// sentence is capitalized by grammar alone, so it qualifies only when
	// it also appears capitalized mid-sentence somewhere in the text or
	// carries a possessive ("Elara's fleet").
	if sp.start > 0 || !single || midCap[spanWords[0]] || poss[sp.end-1] {
		cands = append(cands, candidate{types.EntityCharacter, confDefault})
	}

	if len(cands) == 0 {
		return "", 0, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.conf > best.conf || (c.conf == best.conf && c.typ.Priority() < best.typ.Priority()) {
			best = c
		}
	}
	return best.typ, best.conf, true
}

// parseLabelLine recognizes explicit tag lines and converts them to a
// mention directly. An optional dash-separated tail becomes a description:
// "Character: Elara - the warrior queen".
func parseLabelLine(line string) (types.Mention, bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(line), "-*+ \t")
	m := labelRe.FindStringSubmatch(trimmed)
	if m == nil {
		return types.Mention{}, false
	}
	t, err := types.ParseEntityType(strings.ToLower(m[1]))
	if err != nil {
		return types.Mention{}, false
	}

	rest := strings.TrimSpace(m[2])
	name, desc := rest, ""
	for _, sep := range []string{" — ", " – ", " - "} {
		if before, after, ok := strings.Cut(rest, sep); ok {
			name, desc = strings.TrimSpace(before), strings.TrimSpace(after)
			break
		}
	}
	if name == "" {
		return types.Mention{}, false
	}

	mention := types.Mention{Surface: name, Type: t, Confidence: confLabel}
	if desc != "" {
		mention.Metadata = types.Metadata{"description": desc}
	}
	return mention, true
}

// findSpans groups consecutive capitalized tokens into candidate names.
// Lowercase "of" and "the" join two capitalized runs, so "Order of the
// Flame" scans as one span.
func findSpans(words []string) []span {
	var spans []span
	i := 0
	for i < len(words) {
		if !nameToken(words[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(words) {
			if nameToken(words[j]) {
				j++
				continue
			}
			k := j
			for k < len(words) && connector(words[k]) {
				k++
			}
			if k > j && k < len(words) && nameToken(words[k]) {
				j = k + 1
				continue
			}
			break
		}
		spans = append(spans, span{start: i, end: j})
		i = j
	}
	return spans
}

// nameToken reports whether a word can be part of a name: capitalized and
// not a sentence-function word.
func nameToken(w string) bool {
	return capitalized(w) && !stopwords[w]
}

func connector(w string) bool {
	return w == "of" || w == "the"
}

func capitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

// tokenAt returns words[i] when i is in range.
func tokenAt(words []string, i int) (string, bool) {
	if i < 0 || i >= len(words) {
		return "", false
	}
	return words[i], true
}

// splitSentences divides a line at terminal punctuation followed by a
// space or end of line.
func splitSentences(line string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '.', '!', '?':
			if i+1 >= len(line) || line[i+1] == ' ' || line[i+1] == '\t' {
				sentences = append(sentences, line[start:i+1])
				start = i + 1
			}
		}
	}
	if start < len(line) {
		sentences = append(sentences, line[start:])
	}
	return sentences
}

// tokenize splits a sentence into cleaned words, dropping tokens that are
// pure punctuation. The parallel bool slice records which words carried a
// possessive suffix before cleaning.
func tokenize(sentence string) ([]string, []bool) {
	var words []string
	var poss []bool
	for _, f := range strings.Fields(sentence) {
		w, p := cleanToken(f)
		if w != "" {
			words = append(words, w)
			poss = append(poss, p)
		}
	}
	return words, poss
}

// cleanToken strips surrounding punctuation and a trailing possessive,
// keeping internal hyphens and apostrophes. The second return reports
// whether a possessive was removed.
func cleanToken(field string) (string, bool) {
	w := strings.TrimFunc(field, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, suf := range []string{"'s", "’s"} {
		if strings.HasSuffix(w, suf) {
			return strings.TrimSuffix(w, suf), true
		}
	}
	return w, false
}

// normalizeKey lowercases and collapses whitespace for gazetteer lookups.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
