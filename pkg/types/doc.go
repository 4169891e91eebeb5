// Package types provides shared type definitions for the CodeAtlas MCP server.
//
// This package defines domain types used across multiple components of
// CodeAtlas, including code elements, file analyses, framework records, and
// search results.
//
// # Core Types
//
// CodeElement represents one declared construct (function, class, interface,
// type alias, or component) extracted from a source file:
//
//	elem := &types.CodeElement{
//	    Name:       "create_user",
//	    Kind:       types.KindFunction,
//	    FilePath:   "app/api/users.py",
//	    Line:       42,
//	    Complexity: 3,
//	}
//
// (FilePath, Name, Line) is the element's stable identity; DocumentID renders
// it as "path::name::line" for the element-level index collection.
//
// FileAnalysis is the complete structural analysis of one file: its elements,
// imports, exports, framework records, inferred purpose, and the content hash
// used for change detection.
//
// # Framework Records
//
// FrameworkRecord is a closed tagged variant with four kinds:
//
//	types.RecordRoute         // HTTP route declarations
//	types.RecordModel         // schema/model declarations
//	types.RecordComponent     // UI component declarations
//	types.RecordExternalCall  // outbound fetch/axios call sites
//
// The envelope (Kind, Name, Line) is always set; exactly one payload pointer
// is populated per record, so conversion logic can switch exhaustively on
// Kind instead of probing untyped maps.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := elem.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
