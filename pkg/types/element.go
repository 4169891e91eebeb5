package types

import (
	"errors"
	"fmt"
)

// ElementKind represents the kind of declared construct
type ElementKind string

const (
	KindFunction  ElementKind = "function"
	KindClass     ElementKind = "class"
	KindInterface ElementKind = "interface"
	KindTypeAlias ElementKind = "type-alias"
	KindComponent ElementKind = "component"
)

// CodeElement represents one declared construct extracted from a source file.
// (FilePath, Name, Line) is the element's stable identity.
type CodeElement struct {
	// Identification
	Name     string
	Kind     ElementKind
	FilePath string
	Line     int // 1-based declaration line

	// Content
	Docstring  string
	Signature  string
	Complexity int // >= 1

	// Relations
	Dependencies []string // deduplicated call/attribute targets, order not significant
	Decorators   []string // rendered decorator/annotation strings in declaration order
	Exported     bool

	// Extra carries dialect-specific facts: base classes, props, hooks,
	// lifecycle methods.
	Extra map[string]any
}

// DocumentID renders the element's stable index identity
func (e *CodeElement) DocumentID() string {
	return fmt.Sprintf("%s::%s::%d", e.FilePath, e.Name, e.Line)
}

// ValidateKind checks if the element kind is valid
func (e *CodeElement) ValidateKind() error {
	switch e.Kind {
	case KindFunction, KindClass, KindInterface, KindTypeAlias, KindComponent:
		return nil
	default:
		return errors.New("invalid element kind")
	}
}

// Validate performs comprehensive validation of the element
func (e *CodeElement) Validate() error {
	if e.Name == "" {
		return errors.New("element name is required")
	}

	if err := e.ValidateKind(); err != nil {
		return err
	}

	if e.FilePath == "" {
		return errors.New("element file path is required")
	}

	if e.Line <= 0 {
		return errors.New("invalid position: line number must be positive")
	}

	if e.Complexity < 1 {
		return errors.New("complexity score must be >= 1")
	}

	return nil
}
