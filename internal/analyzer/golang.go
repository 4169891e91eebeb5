package analyzer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"time"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// httpVerbs maps routing-object method names to HTTP methods
var httpVerbs = map[string]string{
	"Get":     "GET",
	"Post":    "POST",
	"Put":     "PUT",
	"Delete":  "DELETE",
	"Patch":   "PATCH",
	"Head":    "HEAD",
	"Options": "OPTIONS",
	"GET":     "GET",
	"POST":    "POST",
	"PUT":     "PUT",
	"DELETE":  "DELETE",
	"PATCH":   "PATCH",
}

// goWebFrameworks maps import path fragments to framework tags
var goWebFrameworks = []struct {
	fragment string
	tag      string
}{
	{"gin-gonic/gin", "gin"},
	{"labstack/echo", "echo"},
	{"go-chi/chi", "chi"},
	{"gofiber/fiber", "fiber"},
	{"gorilla/mux", "gorilla"},
	{"net/http", "net/http"},
}

// GoAnalyzer is the grammar-based analyzer for Go sources. It builds a full
// AST and walks it once to collect all element declarations.
type GoAnalyzer struct {
	fset *token.FileSet
}

// NewGoAnalyzer creates a grammar-based Go analyzer
func NewGoAnalyzer() *GoAnalyzer {
	return &GoAnalyzer{fset: token.NewFileSet()}
}

// Extensions returns the extensions handled by the Go analyzer
func (g *GoAnalyzer) Extensions() []string {
	return []string{".go"}
}

// Analyze parses a Go source file and extracts all declarations
func (g *GoAnalyzer) Analyze(filePath string, content []byte) (*types.FileAnalysis, error) {
	file, err := parser.ParseFile(g.fset, filePath, content, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrSyntax, filePath, err)
	}

	ex := &goExtractor{
		fset:     g.fset,
		filePath: filePath,
	}
	ex.walk(file)

	fa := &types.FileAnalysis{
		FilePath:    filePath,
		Elements:    ex.elements,
		Imports:     extractGoImports(file),
		Exports:     ex.exports,
		Records:     ex.records,
		ContentHash: types.HashContent(content),
		AnalyzedAt:  time.Now(),
		Framework:   detectGoFramework(file),
	}
	fa.Purpose = InferPurpose(filePath, "Go", fa)
	return fa, nil
}

// extractGoImports collects import paths from the AST
func extractGoImports(file *ast.File) []string {
	imports := make([]string, 0, len(file.Imports))
	for _, imp := range file.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, `"`))
	}
	return imports
}

// detectGoFramework tags the file by its web-framework imports
func detectGoFramework(file *ast.File) string {
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		for _, fw := range goWebFrameworks {
			if strings.Contains(path, fw.fragment) {
				return fw.tag
			}
		}
	}
	return "go"
}

// goExtractor walks the AST collecting elements and framework records
type goExtractor struct {
	fset     *token.FileSet
	filePath string
	elements []types.CodeElement
	exports  []string
	records  []types.FrameworkRecord
}

func (e *goExtractor) walk(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			e.extractFunction(d)
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					e.extractType(ts, d.Doc)
				}
			}
		}
	}

	// Route registrations can appear in any function body
	ast.Inspect(file, func(node ast.Node) bool {
		if call, ok := node.(*ast.CallExpr); ok {
			e.detectRoute(call)
		}
		return true
	})
}

func (e *goExtractor) extractFunction(fn *ast.FuncDecl) {
	line := e.fset.Position(fn.Pos()).Line
	exported := token.IsExported(fn.Name.Name)

	elem := types.CodeElement{
		Name:         fn.Name.Name,
		Kind:         types.KindFunction,
		FilePath:     e.filePath,
		Line:         line,
		Docstring:    docText(fn.Doc),
		Signature:    goFuncSignature(fn),
		Complexity:   goComplexity(fn.Body),
		Dependencies: goDependencies(fn.Body),
		Decorators:   goDirectives(fn.Doc),
		Exported:     exported,
	}

	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		elem.Extra = map[string]any{"receiver": receiverName(fn.Recv.List[0].Type)}
	}

	e.elements = append(e.elements, elem)
	if exported {
		e.exports = append(e.exports, fn.Name.Name)
	}
}

func (e *goExtractor) extractType(ts *ast.TypeSpec, doc *ast.CommentGroup) {
	line := e.fset.Position(ts.Pos()).Line
	exported := token.IsExported(ts.Name.Name)

	elem := types.CodeElement{
		Name:       ts.Name.Name,
		FilePath:   e.filePath,
		Line:       line,
		Docstring:  docText(doc),
		Complexity: 1,
		Decorators: goDirectives(doc),
		Exported:   exported,
	}

	switch t := ts.Type.(type) {
	case *ast.StructType:
		elem.Kind = types.KindClass
		fieldCount := 0
		if t.Fields != nil {
			fieldCount = t.Fields.NumFields()
		}
		elem.Signature = fmt.Sprintf("type %s struct { ... } // %d fields", ts.Name.Name, fieldCount)
		if embedded := embeddedNames(t); len(embedded) > 0 {
			elem.Extra = map[string]any{"bases": embedded}
		}
		e.detectModel(ts.Name.Name, t, line)
	case *ast.InterfaceType:
		elem.Kind = types.KindInterface
		methodCount := 0
		if t.Methods != nil {
			methodCount = t.Methods.NumFields()
		}
		elem.Signature = fmt.Sprintf("type %s interface { ... } // %d methods", ts.Name.Name, methodCount)
	default:
		elem.Kind = types.KindTypeAlias
		elem.Signature = fmt.Sprintf("type %s %s", ts.Name.Name, exprString(ts.Type))
	}

	e.elements = append(e.elements, elem)
	if exported {
		e.exports = append(e.exports, ts.Name.Name)
	}
}

// detectRoute matches calls to a routing object with an HTTP-verb method and
// a path-like first argument, e.g. r.Get("/users/{id}", handler).
func (e *goExtractor) detectRoute(call *ast.CallExpr) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || len(call.Args) < 1 {
		return
	}

	method, verb := sel.Sel.Name, ""
	if v, ok := httpVerbs[method]; ok {
		verb = v
	} else if method == "HandleFunc" || method == "Handle" {
		verb = "ANY"
	} else {
		return
	}

	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return
	}
	path := strings.Trim(lit.Value, `"`)
	if !strings.HasPrefix(path, "/") {
		return
	}

	handler := ""
	if len(call.Args) > 1 {
		handler = exprString(call.Args[1])
	}

	e.records = append(e.records, types.FrameworkRecord{
		Kind: types.RecordRoute,
		Name: handler,
		Line: e.fset.Position(call.Pos()).Line,
		Route: &types.RouteRecord{
			Methods: []string{verb},
			Path:    path,
			Handler: handler,
		},
	})
}

// detectModel records structs that embed a known ORM base type
func (e *goExtractor) detectModel(name string, st *ast.StructType, line int) {
	dialect := ""
	for _, base := range embeddedNames(st) {
		if base == "gorm.Model" {
			dialect = "gorm"
		}
	}
	if dialect == "" {
		return
	}

	var fields []types.ModelField
	for _, field := range st.Fields.List {
		for _, fname := range field.Names {
			fields = append(fields, types.ModelField{
				Name: fname.Name,
				Type: exprString(field.Type),
			})
		}
	}

	e.records = append(e.records, types.FrameworkRecord{
		Kind:  types.RecordModel,
		Name:  name,
		Line:  line,
		Model: &types.ModelRecord{Dialect: dialect, Fields: fields},
	})
}

// goComplexity computes the branch-based complexity score: 1 plus one per
// conditional, loop, switch/select case, and one per logical AND/OR operator
// (an n-operand chain contributes n-1).
func goComplexity(body *ast.BlockStmt) int {
	score := 1
	if body == nil {
		return score
	}
	ast.Inspect(body, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.CaseClause, *ast.CommClause:
			score++
		case *ast.BinaryExpr:
			if n.Op == token.LAND || n.Op == token.LOR {
				score++
			}
		}
		return true
	})
	return score
}

// goDependencies collects call targets and selector chains from a body
func goDependencies(body *ast.BlockStmt) []string {
	if body == nil {
		return nil
	}
	var deps []string
	ast.Inspect(body, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok {
			return true
		}
		switch fn := call.Fun.(type) {
		case *ast.Ident:
			deps = append(deps, fn.Name)
		case *ast.SelectorExpr:
			deps = append(deps, exprString(fn))
		}
		return true
	})
	return dedupe(deps)
}

// goDirectives renders //go: comment directives as the annotation sequence,
// preserving declaration order.
func goDirectives(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	var directives []string
	for _, c := range doc.List {
		if strings.HasPrefix(c.Text, "//go:") {
			directives = append(directives, strings.TrimPrefix(c.Text, "//"))
		}
	}
	return directives
}

// docText returns the trimmed doc comment text
func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

// embeddedNames returns the rendered types of embedded struct fields
func embeddedNames(st *ast.StructType) []string {
	var names []string
	if st.Fields == nil {
		return names
	}
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			names = append(names, exprString(field.Type))
		}
	}
	return names
}

// receiverName extracts the receiver type name from a method
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return exprString(t.X)
	default:
		return exprString(t)
	}
}

// goFuncSignature builds a function signature string
func goFuncSignature(fn *ast.FuncDecl) string {
	var sig strings.Builder

	sig.WriteString("func ")
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprString(fn.Recv.List[0].Type))
		sig.WriteString(") ")
	}
	sig.WriteString(fn.Name.Name)

	sig.WriteString("(")
	sig.WriteString(fieldListString(fn.Type.Params))
	sig.WriteString(")")

	if fn.Type.Results != nil && fn.Type.Results.NumFields() > 0 {
		results := fieldListString(fn.Type.Results)
		if fn.Type.Results.NumFields() > 1 {
			sig.WriteString(" (" + results + ")")
		} else {
			sig.WriteString(" " + results)
		}
	}

	return sig.String()
}

// fieldListString converts a field list to a comma-joined string
func fieldListString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}
	var parts []string
	for _, field := range fieldList.List {
		typeStr := exprString(field.Type)
		if len(field.Names) > 0 {
			var names []string
			for _, name := range field.Names {
				names = append(names, name.Name)
			}
			parts = append(parts, strings.Join(names, ", ")+" "+typeStr)
		} else {
			parts = append(parts, typeStr)
		}
	}
	return strings.Join(parts, ", ")
}

// exprString renders an expression as source text for the common cases
func exprString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.ArrayType:
		return "[]" + exprString(t.Elt)
	case *ast.MapType:
		return "map[" + exprString(t.Key) + "]" + exprString(t.Value)
	case *ast.Ellipsis:
		return "..." + exprString(t.Elt)
	case *ast.FuncType:
		return "func(" + fieldListString(t.Params) + ")"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.ChanType:
		return "chan " + exprString(t.Value)
	case *ast.IndexExpr:
		return exprString(t.X) + "[" + exprString(t.Index) + "]"
	default:
		return "?"
	}
}
