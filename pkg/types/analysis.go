package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// RecordKind tags a FrameworkRecord variant
type RecordKind string

const (
	RecordRoute        RecordKind = "route"
	RecordModel        RecordKind = "model"
	RecordComponent    RecordKind = "component"
	RecordExternalCall RecordKind = "external-call"
)

// FrameworkRecord is a normalized fact about a route, schema/model, component,
// or outbound call declaration detected in a file. Kind selects which payload
// is populated; the envelope fields are always set.
type FrameworkRecord struct {
	Kind RecordKind
	Name string
	Line int

	Route        *RouteRecord
	Model        *ModelRecord
	Component    *ComponentRecord
	ExternalCall *ExternalCallRecord
}

// RouteRecord captures an HTTP route declaration
type RouteRecord struct {
	Methods []string // upper-case HTTP verbs
	Path    string
	Handler string
	Doc     string // extracted doc comment, may be empty
}

// ModelRecord captures a schema/model declaration
type ModelRecord struct {
	Dialect string // sqlalchemy, django, pydantic, gorm, unknown
	Fields  []ModelField
}

// ModelField is one declared field; Type is "inferred" when no explicit
// annotation exists.
type ModelField struct {
	Name string
	Type string
}

// ComponentRecord captures a UI component declaration
type ComponentRecord struct {
	Style     string // functional or class
	Props     []string
	Hooks     []string
	Lifecycle []string
}

// ExternalCallRecord captures an outbound HTTP call site
type ExternalCallRecord struct {
	Via    string // fetch, axios
	Target string
}

// Validate checks the record's kind/payload pairing
func (r *FrameworkRecord) Validate() error {
	switch r.Kind {
	case RecordRoute:
		if r.Route == nil {
			return errors.New("route record missing route payload")
		}
	case RecordModel:
		if r.Model == nil {
			return errors.New("model record missing model payload")
		}
	case RecordComponent:
		if r.Component == nil {
			return errors.New("component record missing component payload")
		}
	case RecordExternalCall:
		if r.ExternalCall == nil {
			return errors.New("external-call record missing call payload")
		}
	default:
		return errors.New("invalid record kind")
	}
	return nil
}

// FileAnalysis is the complete structural analysis of one source file
type FileAnalysis struct {
	FilePath string
	Purpose  string // one inferred sentence
	Elements []CodeElement
	Imports  []string
	Exports  []string
	Records  []FrameworkRecord

	// ContentHash is recomputed from raw bytes on every analysis and is the
	// sole key for change detection.
	ContentHash string
	AnalyzedAt  time.Time
	Framework   string // best-guess tag

	// LLM or heuristic enhancement output
	BreakingChanges       []string
	ArchitectureDecisions []string
}

// RouteRecords returns the route-kind records
func (fa *FileAnalysis) RouteRecords() []FrameworkRecord {
	return fa.recordsOfKind(RecordRoute)
}

// ModelRecords returns the model-kind records
func (fa *FileAnalysis) ModelRecords() []FrameworkRecord {
	return fa.recordsOfKind(RecordModel)
}

func (fa *FileAnalysis) recordsOfKind(kind RecordKind) []FrameworkRecord {
	var out []FrameworkRecord
	for _, r := range fa.Records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Validate performs comprehensive validation of the analysis
func (fa *FileAnalysis) Validate() error {
	if fa.FilePath == "" {
		return errors.New("file path is required")
	}
	if fa.ContentHash == "" {
		return errors.New("content hash must be computed")
	}
	for i := range fa.Elements {
		if err := fa.Elements[i].Validate(); err != nil {
			return err
		}
	}
	for i := range fa.Records {
		if err := fa.Records[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HashContent computes the content hash over raw file bytes
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
