package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StoreConfig holds settings for the ledger store.
type StoreConfig struct {
	// Path is the SQLite database file. The containing directory is
	// created on first open; deleting the file resets all state.
	Path string `json:"path" yaml:"path" mapstructure:"path" validate:"required"`
}

// ChunkConfig holds settings for the chunk splitter.
type ChunkConfig struct {
	// MaxChars caps the byte length of a chunk (default 800).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars" validate:"gt=0"`

	// Overlap selects the overlap policy: none or fixed.
	Overlap string `json:"overlap" yaml:"overlap" mapstructure:"overlap" validate:"oneof=none fixed"`

	// OverlapChars is the overlap width used by the fixed policy.
	OverlapChars int `json:"overlap_chars" yaml:"overlap_chars" mapstructure:"overlap_chars" validate:"gte=0,ltfield=MaxChars"`
}

// ExtractConfig holds settings for the entity extractor.
type ExtractConfig struct {
	// MinConfidence drops candidate mentions scoring below it (default 0.5).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence" mapstructure:"min_confidence" validate:"gte=0,lte=1"`

	// Gazetteer lists known names per entity type label, e.g.
	// location: [Ravenwood, The Shattered Coast].
	Gazetteer map[string][]string `json:"gazetteer" yaml:"gazetteer" mapstructure:"gazetteer"`

	// RoleKeywords extends the built-in role words that mark a
	// following name as a character (e.g. warden, archmage).
	RoleKeywords []string `json:"role_keywords" yaml:"role_keywords" mapstructure:"role_keywords"`
}

// ResolveConfig holds settings for entity resolution in the ledger.
type ResolveConfig struct {
	// FuzzyThreshold is the minimum similarity for merging a mention
	// into an existing entity (default 0.6).
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold" validate:"gte=0,lte=1"`

	// Aliases maps normalized surface forms to the normalized form they
	// should resolve as, e.g. "the crown" -> "kingdom of ravenwood".
	Aliases map[string]string `json:"aliases" yaml:"aliases" mapstructure:"aliases"`
}

// RetrievalConfig holds settings for the retrieval index.
type RetrievalConfig struct {
	// TopK bounds the result set (default 3).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k" validate:"gt=0"`

	// MinScore drops results scoring below it.
	MinScore float64 `json:"min_score" yaml:"min_score" mapstructure:"min_score" validate:"gte=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum level printed: debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Config groups all component configurations.
type Config struct {
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Chunk     ChunkConfig     `json:"chunk" yaml:"chunk" mapstructure:"chunk"`
	Extract   ExtractConfig   `json:"extract" yaml:"extract" mapstructure:"extract"`
	Resolve   ResolveConfig   `json:"resolve" yaml:"resolve" mapstructure:"resolve"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when no file or flags
// override it.
func DefaultConfig() Config {
	return Config{
		Store:     StoreConfig{Path: "world.db"},
		Chunk:     ChunkConfig{MaxChars: 800, Overlap: "none"},
		Extract:   ExtractConfig{MinConfidence: 0.5},
		Resolve:   ResolveConfig{FuzzyThreshold: 0.6},
		Retrieval: RetrievalConfig{TopK: 3},
		Log:       LogConfig{Level: "info"},
	}
}

// Validate checks the configuration and reports every violated constraint
// in one readable message.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, ve := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s fails %q", ve.Namespace(), ve.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	for label := range c.Extract.Gazetteer {
		if _, err := ParseEntityType(label); err != nil {
			return fmt.Errorf("invalid configuration: gazetteer: %w", err)
		}
	}
	return nil
}
