// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EntityType categorizes a resolved entity or a raw mention.
type EntityType string

const (
	EntityCharacter    EntityType = "character"
	EntityLocation     EntityType = "location"
	EntityOrganization EntityType = "organization"
	EntityItem         EntityType = "item"
)

// entityTypePriority fixes the tie-break order when a surface string matches
// heuristics for more than one type. Lower value wins.
var entityTypePriority = map[EntityType]int{
	EntityCharacter:    0,
	EntityOrganization: 1,
	EntityLocation:     2,
	EntityItem:         3,
}

// Priority returns the tie-break rank of the type. Character outranks
// Organization, which outranks Location, which outranks Item.
func (t EntityType) Priority() int {
	p, ok := entityTypePriority[t]
	if !ok {
		return len(entityTypePriority)
	}
	return p
}

// Valid reports whether t is one of the four known entity types.
func (t EntityType) Valid() bool {
	_, ok := entityTypePriority[t]
	return ok
}

// entityTypeLabels maps document label words to entity types. Worldbuilding
// notes commonly tag lines with either the formal or the informal word.
var entityTypeLabels = map[string]EntityType{
	"character":    EntityCharacter,
	"npc":          EntityCharacter,
	"location":     EntityLocation,
	"place":        EntityLocation,
	"organization": EntityOrganization,
	"faction":      EntityOrganization,
	"item":         EntityItem,
	"artifact":     EntityItem,
}

// ParseEntityType maps a label word (e.g. "npc", "faction") to its EntityType.
func ParseEntityType(label string) (EntityType, error) {
	if t, ok := entityTypeLabels[label]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown entity type %q: use character, location, organization, or item", label)
}

// EntityTypes lists all entity types in priority order.
func EntityTypes() []EntityType {
	return []EntityType{EntityCharacter, EntityOrganization, EntityLocation, EntityItem}
}

// Metadata is an open-ended string-to-string mapping attached to an entity.
// It round-trips through a TEXT column as JSON.
type Metadata map[string]string

// Value implements driver.Valuer, serializing the map as JSON.
func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner, deserializing JSON from a TEXT column.
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Merge copies every key from other into m. On conflict the value from
// other wins, giving last-writer-wins semantics by ingestion order.
func (m Metadata) Merge(other Metadata) {
	for k, v := range other {
		m[k] = v
	}
}

// Document is one ingested source text. Identity is the content hash:
// re-ingesting identical content must not create a second Document.
type Document struct {
	// ID is the ledger-assigned row id.
	ID int64 `json:"id" yaml:"id"`

	// ContentHash is the hex SHA-256 of RawText.
	ContentHash string `json:"content_hash" yaml:"content_hash"`

	// Title is derived from the first Markdown heading or the filename.
	Title string `json:"title" yaml:"title"`

	// SourcePath records where the document was read from.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// RawText is the normalized document text chunk offsets index into.
	RawText string `json:"-" yaml:"-"`

	// IngestRun identifies the CLI invocation that ingested this document.
	IngestRun string `json:"ingest_run" yaml:"ingest_run"`

	// IngestedAt is when the document was committed to the ledger.
	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`
}

// Chunk is a bounded span of one Document's text. Chunks are owned by
// their Document and removed with it.
type Chunk struct {
	// ID is the ledger-assigned row id.
	ID int64 `json:"id" yaml:"id"`

	// DocumentID is the owning Document.
	DocumentID int64 `json:"document_id" yaml:"document_id"`

	// Seq is the zero-based position of the chunk within the document.
	Seq int `json:"seq" yaml:"seq"`

	// Start and End are byte offsets into the document's raw text such
	// that raw[Start:End] == Text.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Text is the chunk content.
	Text string `json:"text" yaml:"text"`
}

// Mention is one occurrence of an entity in one chunk: the evidence the
// resolver works from. Before persistence ID, ChunkID, and EntityID are zero.
type Mention struct {
	ID       int64 `json:"id" yaml:"id"`
	ChunkID  int64 `json:"chunk_id" yaml:"chunk_id"`
	EntityID int64 `json:"entity_id" yaml:"entity_id"`

	// Surface is the text as it appeared in the chunk.
	Surface string `json:"surface" yaml:"surface"`

	// Type is the heuristic classification of the mention.
	Type EntityType `json:"type" yaml:"type"`

	// Confidence is the extractor's certainty in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Metadata carries key/value evidence found alongside the mention
	// (e.g. a description from a labeled line). It is merged into the
	// resolved entity, not stored with the mention row.
	Metadata Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Entity is the canonical record all mentions judged to denote the same
// thing resolve to. Entities are never deleted by resolution: a merge
// retires the losing record by pointing SupersededBy at the survivor.
type Entity struct {
	// ID is the ledger-assigned row id.
	ID int64 `json:"id" yaml:"id"`

	// Name is the canonical display name (the surface form of the first
	// mention that created the entity).
	Name string `json:"name" yaml:"name"`

	// NormalizedName is Name after case-folding, whitespace collapsing,
	// and alias substitution. Uniqueness per type is enforced on it.
	NormalizedName string `json:"normalized_name" yaml:"normalized_name"`

	// Type is the entity's category.
	Type EntityType `json:"type" yaml:"type"`

	// Metadata holds open key/value attributes, merged last-writer-wins.
	Metadata Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// SupersededBy is the id of the surviving entity this record was
	// merged into, or zero for a live entity.
	SupersededBy int64 `json:"superseded_by,omitempty" yaml:"superseded_by,omitempty"`

	// CreatedAt is when the record was first written.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// MentionCount is filled by listing queries; it is not a stored column.
	MentionCount int `json:"mention_count,omitempty" yaml:"mention_count,omitempty"`
}

// Live reports whether the entity is the surviving record rather than a
// retired one kept for the audit trail.
func (e Entity) Live() bool {
	return e.SupersededBy == 0
}
