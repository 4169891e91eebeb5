// Package analyzer converts source text into structured FileAnalysis records.
//
// Two implementations share one output contract. The grammar-based GoAnalyzer
// builds a full AST with go/parser and walks it once; the pattern-based
// LexicalAnalyzer matches declarations line by line for Python and
// JavaScript/TypeScript, where no grammar is available in-process.
//
// # Dialect Selection
//
// A Registry maps file extensions to implementations. Callers dispatch by
// extension only:
//
//	reg := analyzer.Default()
//	fa, err := reg.AnalyzeFile("app/api/users.py")
//
// # Complexity Scoring
//
// Grammar analysis scores each declaration from its own body: 1 plus one per
// branch construct (conditional, loop, switch/select case) plus one per
// logical AND/OR operator. Lexical analysis approximates this by counting
// branch and logical tokens across the whole file, capped at 20.
//
// # Framework Records
//
// A priority-ordered marker table maps textual/structural patterns to record
// kinds: HTTP-verb calls on routing objects become route records, classes
// deriving from schema bases become model records, uppercase JSX declarations
// become component records, and fetch/axios call sites become external-call
// records.
//
// # Failure Semantics
//
// Unreadable input wraps types.ErrUnreadable; unparsable Go wraps
// types.ErrSyntax. Both are non-fatal to batch callers: the file is skipped
// and recorded, never retried automatically.
package analyzer
