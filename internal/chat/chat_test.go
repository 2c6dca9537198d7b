// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pdiddy/worldbuild/internal/retrieval"
	"github.com/pdiddy/worldbuild/pkg/types"
)

// fakeRetriever returns a canned result set or error.
type fakeRetriever struct {
	results []retrieval.Result
	err     error
	queries []string
}

func (f *fakeRetriever) Query(_ context.Context, query string, _ retrieval.Options) ([]retrieval.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func elaraResults() []retrieval.Result {
	return []retrieval.Result{
		{
			Chunk:         types.Chunk{ID: 1, Text: "Ravenwood is ruled by Queen Elara."},
			DocumentID:    1,
			DocumentTitle: "ravenwood",
			Score:         2.4,
			Entities: []types.Entity{
				{ID: 1, Name: "Elara", Type: types.EntityCharacter,
					Metadata: types.Metadata{"description": "the warrior queen"}},
				{ID: 2, Name: "Ravenwood", Type: types.EntityLocation},
			},
		},
		{
			Chunk:         types.Chunk{ID: 2, Text: "Elara commands the Highwind fleet."},
			DocumentID:    1,
			DocumentTitle: "ravenwood",
			Score:         1.1,
			Entities: []types.Entity{
				{ID: 1, Name: "Elara", Type: types.EntityCharacter},
				{ID: 3, Name: "Highwind", Type: types.EntityOrganization},
			},
		},
	}
}

func TestAnswerCitesEntitiesOnce(t *testing.T) {
	got := Answer("who is elara", elaraResults())

	for _, want := range []string{
		`From "ravenwood":`,
		"Ravenwood is ruled by Queen Elara.",
		"- [character] Elara: the warrior queen",
		"- [location] Ravenwood",
		"- [organization] Highwind",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("answer missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "[character] Elara") != 1 {
		t.Errorf("Elara cited more than once:\n%s", got)
	}
}

func TestAnswerFallsBackWhenEmpty(t *testing.T) {
	if got := Answer("Nonexistent Place", nil); got != Fallback {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestRespondDegradesOnError(t *testing.T) {
	r := NewResponder(&fakeRetriever{err: errors.New("store gone")}, retrieval.Options{}, quietLogger())
	if got := r.Respond(context.Background(), "anything"); got != Fallback {
		t.Errorf("got %q, want fallback on retrieval error", got)
	}
}

func TestLoopAnswersUntilExit(t *testing.T) {
	fake := &fakeRetriever{results: elaraResults()}
	r := NewResponder(fake, retrieval.Options{}, quietLogger())

	in := strings.NewReader("who is elara\n\nexit\nnever seen\n")
	var out bytes.Buffer
	if err := r.Loop(context.Background(), in, &out); err != nil {
		t.Fatal(err)
	}

	if len(fake.queries) != 1 || fake.queries[0] != "who is elara" {
		t.Errorf("queries = %v, want the one before exit", fake.queries)
	}
	if !strings.Contains(out.String(), "Queen Elara") {
		t.Errorf("transcript missing answer:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Goodbye.") {
		t.Errorf("transcript missing goodbye:\n%s", out.String())
	}
}

func TestLoopEndsOnEOF(t *testing.T) {
	r := NewResponder(&fakeRetriever{}, retrieval.Options{}, quietLogger())
	var out bytes.Buffer
	if err := r.Loop(context.Background(), strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}
}

func TestLoopSurvivesRetrievalErrors(t *testing.T) {
	fake := &fakeRetriever{err: errors.New("disk on fire")}
	r := NewResponder(fake, retrieval.Options{}, quietLogger())

	in := strings.NewReader("first\nsecond\nexit\n")
	var out bytes.Buffer
	if err := r.Loop(context.Background(), in, &out); err != nil {
		t.Fatal(err)
	}
	if len(fake.queries) != 2 {
		t.Errorf("loop stopped after an error: queries = %v", fake.queries)
	}
	if strings.Count(out.String(), Fallback) != 2 {
		t.Errorf("want two fallback answers:\n%s", out.String())
	}
}
