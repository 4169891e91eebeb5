package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// complexityCap bounds lexical complexity scores; token counting over a whole
// file runs away on generated code.
const complexityCap = 20

// Python declaration patterns
var (
	pyFuncRe      = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(([^)]*)`)
	pyClassRe     = regexp.MustCompile(`^\s*class\s+(\w+)\s*(?:\(([^)]*)\))?\s*:`)
	pyDecoratorRe = regexp.MustCompile(`^\s*@([\w.]+(?:\([^)]*\))?)\s*$`)
	pyImportRe    = regexp.MustCompile(`^\s*import\s+([\w.]+)`)
	pyFromRe      = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s+(.+)`)
	pyFieldAnnRe  = regexp.MustCompile(`^\s+(\w+)\s*:\s*([^=\s]+)`)
	pyFieldRe     = regexp.MustCompile(`^\s+(\w+)\s*=`)
	pyVerbRouteRe = regexp.MustCompile(`^@?(?:app|router)\.(get|post|put|delete|patch)\(["']([^"']+)["']`)
	pyFlaskRe     = regexp.MustCompile(`^@?(?:app|blueprint)\.route\(["']([^"']+)["']`)
	pyMethodsRe   = regexp.MustCompile(`methods=\[([^\]]+)\]`)
)

// JavaScript/TypeScript declaration patterns
var (
	jsFuncRe      = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+(\w+)\s*\(`)
	jsArrowRe     = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>`)
	jsClassRe     = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+(\w+)`)
	jsInterfaceRe = regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`)
	jsTypeRe      = regexp.MustCompile(`^\s*(?:export\s+)?type\s+(\w+)\s*=`)
	jsExtendsRe   = regexp.MustCompile(`extends\s+([\w.]+)`)
	jsImportRe    = regexp.MustCompile(`import\s+(?:.*?)\s+from\s+['"]([^'"]+)['"]`)
	jsRequireRe   = regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`)
	jsDynImportRe = regexp.MustCompile(`import\(['"]([^'"]+)['"]\)`)
	jsNamedExpRe  = regexp.MustCompile(`export\s+(?:const|let|var|function|class|interface|type)\s+(\w+)`)
	jsExpListRe   = regexp.MustCompile(`export\s+\{([^}]+)\}`)
	jsClassCompRe = regexp.MustCompile(`class\s+([A-Z]\w*)\s+extends\s+(?:React\.)?Component`)
	jsHookRe      = regexp.MustCompile(`\buse[A-Z]\w*`)
	jsFetchRe     = regexp.MustCompile("fetch\\(['\"`]([^'\"`)]+)['\"`]")
	jsAxiosRe     = regexp.MustCompile("axios\\.(?:get|post|put|delete|patch)\\(['\"`]([^'\"`)]+)['\"`]")
	jsExpressRe   = regexp.MustCompile("(?:app|router)\\.(get|post|put|delete|patch)\\(['\"`]([^'\"`)]+)['\"`]")
	callRe        = regexp.MustCompile(`(\w+)\s*\(`)
	methodCallRe  = regexp.MustCompile(`\.(\w+)\s*\(`)
)

// branchTokens are counted once each toward lexical complexity
var branchTokens = []string{"if ", "else if", "elif ", "switch ", "for ", "while ", "catch ", "except ", " ? ", "&&", "||", " and ", " or "}

// scriptFrameworkPatterns is the priority-ordered framework marker table
var scriptFrameworkPatterns = []struct {
	tag      string
	patterns []*regexp.Regexp
}{
	{"angular", compileAll(`@Component`, `@Injectable`, `from\s+['"]@angular`)},
	{"next", compileAll(`from\s+['"]next`, `getServerSideProps`, `getStaticProps`)},
	{"react", compileAll(`from\s+['"]react['"]`, `React\.`, `useState`, `useEffect`)},
	{"vue", compileAll(`<template>`, `Vue\.`)},
	{"express", compileAll(`express\(\)`, `app\.get`, `app\.post`, `router\.`)},
	{"fastapi", compileAll(`from\s+fastapi`, `FastAPI\(`)},
	{"flask", compileAll(`from\s+flask`, `Flask\(`)},
	{"django", compileAll(`from\s+django`, `models\.Model`)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// reactLifecycle is the set of recognized class-component lifecycle methods
var reactLifecycle = []string{
	"componentDidMount", "componentDidUpdate", "componentWillUnmount",
	"shouldComponentUpdate", "componentDidCatch", "getDerivedStateFromProps",
}

// LexicalAnalyzer is the pattern-based analyzer for dialects without an
// available grammar. It matches declarations line by line and approximates
// complexity by counting branch and logical tokens across the whole file.
type LexicalAnalyzer struct{}

// NewLexicalAnalyzer creates a pattern-based analyzer for Python and
// JavaScript/TypeScript sources.
func NewLexicalAnalyzer() *LexicalAnalyzer {
	return &LexicalAnalyzer{}
}

// Extensions returns the extensions handled by the lexical analyzer
func (l *LexicalAnalyzer) Extensions() []string {
	return []string{".py", ".js", ".jsx", ".ts", ".tsx"}
}

// Analyze extracts declarations from a Python or JS/TS source file
func (l *LexicalAnalyzer) Analyze(filePath string, content []byte) (*types.FileAnalysis, error) {
	text := string(content)
	var fa *types.FileAnalysis
	if strings.HasSuffix(filePath, ".py") {
		fa = l.analyzePython(filePath, text)
	} else {
		fa = l.analyzeScript(filePath, text)
	}
	fa.ContentHash = types.HashContent(content)
	fa.AnalyzedAt = time.Now()
	return fa, nil
}

// --- Python dialect ---

func (l *LexicalAnalyzer) analyzePython(filePath, content string) *types.FileAnalysis {
	lines := strings.Split(content, "\n")
	complexity := lexicalComplexity(content)

	fa := &types.FileAnalysis{
		FilePath:  filePath,
		Imports:   pythonImports(lines),
		Framework: detectScriptFramework(content, filePath, "python"),
	}

	var pendingDecorators []string
	for i, line := range lines {
		if m := pyDecoratorRe.FindStringSubmatch(line); m != nil {
			pendingDecorators = append(pendingDecorators, "@"+m[1])
			l.detectPythonRoute(line, lines, i, fa)
			continue
		}

		if m := pyFuncRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			elem := types.CodeElement{
				Name:         name,
				Kind:         types.KindFunction,
				FilePath:     filePath,
				Line:         i + 1,
				Docstring:    pythonDocstring(lines, i),
				Signature:    name + "(" + strings.TrimSpace(m[2]) + ")",
				Complexity:   complexity,
				Dependencies: bodyDependencies(pythonBody(lines, i), name),
				Decorators:   pendingDecorators,
				Exported:     !strings.HasPrefix(name, "_"),
			}
			fa.Elements = append(fa.Elements, elem)
			if elem.Exported && leadingIndent(line) == 0 {
				fa.Exports = append(fa.Exports, name)
			}
			// Route decorators bind to the following def
			l.bindRouteHandler(fa, name, i+1, elem.Docstring)
			pendingDecorators = nil
			continue
		}

		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			bases := splitArgs(m[2])
			elem := types.CodeElement{
				Name:         name,
				Kind:         types.KindClass,
				FilePath:     filePath,
				Line:         i + 1,
				Docstring:    pythonDocstring(lines, i),
				Complexity:   complexity,
				Dependencies: bodyDependencies(pythonBody(lines, i), name),
				Decorators:   pendingDecorators,
				Exported:     !strings.HasPrefix(name, "_"),
			}
			if len(bases) > 0 {
				elem.Extra = map[string]any{"bases": bases}
			}
			fa.Elements = append(fa.Elements, elem)
			if elem.Exported && leadingIndent(line) == 0 {
				fa.Exports = append(fa.Exports, name)
			}
			l.detectPythonModel(name, bases, lines, i, fa)
			pendingDecorators = nil
			continue
		}

		if strings.TrimSpace(line) != "" {
			pendingDecorators = nil
		}
	}

	fa.Purpose = InferPurpose(filePath, "Python", fa)
	return fa
}

// detectPythonRoute records FastAPI verb decorators and Flask route
// decorators. The handler name is bound when the following def is seen.
func (l *LexicalAnalyzer) detectPythonRoute(line string, lines []string, idx int, fa *types.FileAnalysis) {
	trimmed := strings.TrimSpace(line)

	if m := pyVerbRouteRe.FindStringSubmatch(trimmed); m != nil {
		fa.Records = append(fa.Records, types.FrameworkRecord{
			Kind: types.RecordRoute,
			Line: idx + 1,
			Route: &types.RouteRecord{
				Methods: []string{strings.ToUpper(m[1])},
				Path:    m[2],
			},
		})
		return
	}

	if m := pyFlaskRe.FindStringSubmatch(trimmed); m != nil {
		methods := []string{"GET"}
		if mm := pyMethodsRe.FindStringSubmatch(trimmed); mm != nil {
			methods = nil
			for _, part := range strings.Split(mm[1], ",") {
				methods = append(methods, strings.ToUpper(strings.Trim(strings.TrimSpace(part), `"'`)))
			}
		}
		fa.Records = append(fa.Records, types.FrameworkRecord{
			Kind: types.RecordRoute,
			Line: idx + 1,
			Route: &types.RouteRecord{
				Methods: methods,
				Path:    m[1],
			},
		})
	}
}

// bindRouteHandler attaches the handler name and doc to route records that
// were emitted for the decorators directly above this def.
func (l *LexicalAnalyzer) bindRouteHandler(fa *types.FileAnalysis, handler string, defLine int, doc string) {
	for i := range fa.Records {
		r := &fa.Records[i]
		if r.Kind == types.RecordRoute && r.Route.Handler == "" && r.Line < defLine && defLine-r.Line <= 4 {
			r.Name = handler
			r.Route.Handler = handler
			r.Route.Doc = doc
		}
	}
}

// detectPythonModel records classes whose base name suggests a schema/model
// framework, with the declared field list.
func (l *LexicalAnalyzer) detectPythonModel(name string, bases []string, lines []string, idx int, fa *types.FileAnalysis) {
	dialect := ""
	for _, base := range bases {
		switch {
		case strings.Contains(base, "models.Model"):
			dialect = "django"
		case strings.Contains(base, "BaseModel"):
			dialect = "pydantic"
		case strings.Contains(base, "Base") || strings.Contains(base, "Model"):
			dialect = "sqlalchemy"
		}
		if dialect != "" {
			break
		}
	}
	if dialect == "" {
		return
	}

	var fields []types.ModelField
	for j := idx + 1; j < len(lines); j++ {
		line := lines[j]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if leadingIndent(line) == 0 {
			break // end of class body
		}
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def") || strings.HasPrefix(trimmed, "@") {
			break
		}
		if m := pyFieldAnnRe.FindStringSubmatch(line); m != nil {
			fields = append(fields, types.ModelField{Name: m[1], Type: m[2]})
		} else if m := pyFieldRe.FindStringSubmatch(line); m != nil {
			fields = append(fields, types.ModelField{Name: m[1], Type: "inferred"})
		}
	}

	fa.Records = append(fa.Records, types.FrameworkRecord{
		Kind:  types.RecordModel,
		Name:  name,
		Line:  idx + 1,
		Model: &types.ModelRecord{Dialect: dialect, Fields: fields},
	})
}

// pythonImports collects import and from-import targets
func pythonImports(lines []string) []string {
	var imports []string
	for _, line := range lines {
		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			imports = append(imports, m[1])
		} else if m := pyFromRe.FindStringSubmatch(line); m != nil {
			for _, name := range strings.Split(m[2], ",") {
				name = strings.TrimSpace(strings.SplitN(name, " as ", 2)[0])
				if name != "" && name != "(" {
					imports = append(imports, m[1]+"."+name)
				}
			}
		}
	}
	return imports
}

// pythonDocstring extracts a triple-quoted docstring following a declaration
func pythonDocstring(lines []string, declIdx int) string {
	for j := declIdx + 1; j < len(lines) && j <= declIdx+2; j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		quote := ""
		switch {
		case strings.HasPrefix(trimmed, `"""`):
			quote = `"""`
		case strings.HasPrefix(trimmed, "'''"):
			quote = "'''"
		default:
			return ""
		}
		body := strings.TrimPrefix(trimmed, quote)
		if end := strings.Index(body, quote); end >= 0 {
			return strings.TrimSpace(body[:end])
		}
		var parts []string
		if body != "" {
			parts = append(parts, body)
		}
		for k := j + 1; k < len(lines); k++ {
			line := strings.TrimSpace(lines[k])
			if end := strings.Index(line, quote); end >= 0 {
				if frag := strings.TrimSpace(line[:end]); frag != "" {
					parts = append(parts, frag)
				}
				return strings.TrimSpace(strings.Join(parts, "\n"))
			}
			parts = append(parts, line)
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
	return ""
}

// --- JavaScript/TypeScript dialect ---

func (l *LexicalAnalyzer) analyzeScript(filePath, content string) *types.FileAnalysis {
	lines := strings.Split(content, "\n")
	isJSX := strings.HasSuffix(filePath, ".jsx") || strings.HasSuffix(filePath, ".tsx")
	complexity := lexicalComplexity(content)

	fa := &types.FileAnalysis{
		FilePath:  filePath,
		Imports:   scriptImports(content),
		Exports:   scriptExports(content),
		Framework: detectScriptFramework(content, filePath, "vanilla"),
	}

	seen := make(map[string]bool) // name@line, one element per declaration

	addElem := func(elem types.CodeElement) {
		key := fmt.Sprintf("%s@%d", elem.Name, elem.Line)
		if seen[key] {
			return
		}
		seen[key] = true
		fa.Elements = append(fa.Elements, elem)
	}

	for i, line := range lines {
		lineNo := i + 1
		exported := strings.Contains(line, "export")

		if m := jsClassRe.FindStringSubmatch(line); m != nil {
			elem := types.CodeElement{
				Name:         m[1],
				Kind:         types.KindClass,
				FilePath:     filePath,
				Line:         lineNo,
				Docstring:    jsdocAbove(lines, i),
				Complexity:   complexity,
				Dependencies: bodyDependencies(scriptBody(lines, i), m[1]),
				Exported:     exported,
			}
			if em := jsExtendsRe.FindStringSubmatch(line); em != nil {
				elem.Extra = map[string]any{"extends": em[1]}
			}
			addElem(elem)
			continue
		}

		if m := jsInterfaceRe.FindStringSubmatch(line); m != nil {
			addElem(types.CodeElement{
				Name:       m[1],
				Kind:       types.KindInterface,
				FilePath:   filePath,
				Line:       lineNo,
				Docstring:  jsdocAbove(lines, i),
				Complexity: 1,
				Exported:   exported,
			})
			continue
		}

		if m := jsTypeRe.FindStringSubmatch(line); m != nil {
			addElem(types.CodeElement{
				Name:       m[1],
				Kind:       types.KindTypeAlias,
				FilePath:   filePath,
				Line:       lineNo,
				Docstring:  jsdocAbove(lines, i),
				Complexity: 1,
				Exported:   exported,
			})
			continue
		}

		name := ""
		if m := jsFuncRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := jsArrowRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		}
		if name == "" {
			continue
		}

		kind := types.KindFunction
		elem := types.CodeElement{
			Name:         name,
			FilePath:     filePath,
			Line:         lineNo,
			Docstring:    jsdocAbove(lines, i),
			Signature:    strings.TrimSpace(line),
			Complexity:   complexity,
			Dependencies: bodyDependencies(scriptBody(lines, i), name),
			Exported:     exported,
		}

		// Components start with uppercase in JSX files
		if isJSX && name[0] >= 'A' && name[0] <= 'Z' {
			kind = types.KindComponent
			elem.Extra = map[string]any{
				"hooks": matchAll(jsHookRe, content),
				"props": scriptProps(content, name),
			}
			fa.Records = append(fa.Records, types.FrameworkRecord{
				Kind: types.RecordComponent,
				Name: name,
				Line: lineNo,
				Component: &types.ComponentRecord{
					Style: "functional",
					Props: scriptProps(content, name),
					Hooks: matchAll(jsHookRe, content),
				},
			})
		}
		elem.Kind = kind
		addElem(elem)
	}

	// Class components
	for _, m := range jsClassCompRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		fa.Records = append(fa.Records, types.FrameworkRecord{
			Kind: types.RecordComponent,
			Name: name,
			Line: lineOfOffset(content, m[0]),
			Component: &types.ComponentRecord{
				Style:     "class",
				Lifecycle: scriptLifecycle(content),
			},
		})
	}

	// Express routes
	for _, m := range jsExpressRe.FindAllStringSubmatchIndex(content, -1) {
		verb := strings.ToUpper(content[m[2]:m[3]])
		path := content[m[4]:m[5]]
		fa.Records = append(fa.Records, types.FrameworkRecord{
			Kind: types.RecordRoute,
			Line: lineOfOffset(content, m[0]),
			Route: &types.RouteRecord{
				Methods: []string{verb},
				Path:    path,
			},
		})
	}

	// Outbound calls
	for _, m := range jsFetchRe.FindAllStringSubmatchIndex(content, -1) {
		fa.Records = append(fa.Records, types.FrameworkRecord{
			Kind:         types.RecordExternalCall,
			Line:         lineOfOffset(content, m[0]),
			ExternalCall: &types.ExternalCallRecord{Via: "fetch", Target: content[m[2]:m[3]]},
		})
	}
	for _, m := range jsAxiosRe.FindAllStringSubmatchIndex(content, -1) {
		fa.Records = append(fa.Records, types.FrameworkRecord{
			Kind:         types.RecordExternalCall,
			Line:         lineOfOffset(content, m[0]),
			ExternalCall: &types.ExternalCallRecord{Via: "axios", Target: content[m[2]:m[3]]},
		})
	}

	fa.Purpose = InferPurpose(filePath, "JavaScript", fa)
	return fa
}

func scriptImports(content string) []string {
	var imports []string
	for _, re := range []*regexp.Regexp{jsImportRe, jsRequireRe, jsDynImportRe} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			imports = append(imports, m[1])
		}
	}
	return dedupe(imports)
}

func scriptExports(content string) []string {
	var exports []string
	for _, m := range jsNamedExpRe.FindAllStringSubmatch(content, -1) {
		exports = append(exports, m[1])
	}
	for _, m := range jsExpListRe.FindAllStringSubmatch(content, -1) {
		for _, name := range strings.Split(m[1], ",") {
			exports = append(exports, strings.TrimSpace(name))
		}
	}
	if strings.Contains(content, "export default") {
		exports = append(exports, "default")
	}
	return dedupe(exports)
}

// scriptProps extracts props for a component from its Props interface or
// destructured signature.
func scriptProps(content, component string) []string {
	var props []string
	ifaceRe := regexp.MustCompile(`interface\s+` + regexp.QuoteMeta(component) + `Props\s*\{([^}]+)\}`)
	if m := ifaceRe.FindStringSubmatch(content); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			if pm := regexp.MustCompile(`^\s*(\w+)`).FindStringSubmatch(line); pm != nil {
				props = append(props, pm[1])
			}
		}
	}
	return dedupe(props)
}

func scriptLifecycle(content string) []string {
	var out []string
	for _, method := range reactLifecycle {
		if strings.Contains(content, method) {
			out = append(out, method)
		}
	}
	return out
}

// jsdocAbove extracts a JSDoc comment ending on the line above a declaration
func jsdocAbove(lines []string, declIdx int) string {
	i := declIdx - 1
	if i < 0 || !strings.Contains(lines[i], "*/") {
		return ""
	}
	var block []string
	for ; i >= 0; i-- {
		block = append([]string{lines[i]}, block...)
		if strings.Contains(lines[i], "/**") {
			break
		}
	}
	if len(block) == 0 || !strings.Contains(block[0], "/**") {
		return ""
	}
	text := strings.Join(block, "\n")
	text = regexp.MustCompile(`/\*\*|\*/|(?m)^\s*\*\s?`).ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- shared lexical helpers ---

// lexicalComplexity approximates complexity by counting branch and logical
// tokens over the whole file, capped to avoid runaway scores.
func lexicalComplexity(content string) int {
	score := 1
	for _, tok := range branchTokens {
		score += strings.Count(content, tok)
	}
	if score > complexityCap {
		return complexityCap
	}
	return score
}

// declLineRe matches lines that declare rather than call, so nested
// declarations inside a body are not counted as call targets.
var declLineRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?(?:def|class|function|interface)\b`)

// callStopwords are keywords the call regex matches but that are never
// call targets.
var callStopwords = map[string]bool{
	"if": true, "elif": true, "for": true, "while": true, "switch": true,
	"catch": true, "return": true, "with": true, "assert": true,
	"lambda": true, "yield": true, "await": true, "not": true,
	"new": true, "typeof": true, "except": true,
}

// bodyDependencies collects call and method-call targets inside a
// declaration body, excluding the declaring element's own name.
func bodyDependencies(body, ownName string) []string {
	var deps []string
	for _, line := range strings.Split(body, "\n") {
		if declLineRe.MatchString(line) {
			continue
		}
		for _, m := range callRe.FindAllStringSubmatch(line, -1) {
			deps = append(deps, m[1])
		}
		for _, m := range methodCallRe.FindAllStringSubmatch(line, -1) {
			deps = append(deps, m[1])
		}
	}

	var out []string
	for _, d := range dedupe(deps) {
		if d == ownName || callStopwords[d] {
			continue
		}
		out = append(out, d)
	}
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// pythonBody returns the indented block under the declaration at declIdx,
// including a one-liner body on the declaration line itself.
func pythonBody(lines []string, declIdx int) string {
	decl := lines[declIdx]
	indent := leadingIndent(decl)

	var body []string
	if idx := strings.LastIndex(decl, "):"); idx >= 0 {
		if tail := strings.TrimSpace(decl[idx+2:]); tail != "" {
			body = append(body, tail)
		}
	}
	for i := declIdx + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			body = append(body, line)
			continue
		}
		if leadingIndent(line) <= indent {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}

// scriptBody returns the brace-delimited block of the declaration at
// declIdx, or the expression after => for braceless arrow functions.
func scriptBody(lines []string, declIdx int) string {
	decl := lines[declIdx]
	if !strings.Contains(decl, "{") {
		if arrow := strings.Index(decl, "=>"); arrow >= 0 {
			return strings.TrimSpace(decl[arrow+2:])
		}
	}

	text := strings.Join(lines[declIdx:], "\n")
	open := strings.Index(text, "{")
	if open < 0 {
		return ""
	}

	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[open+1 : i]
			}
		}
	}
	return text[open+1:]
}

func detectScriptFramework(content, filePath, fallback string) string {
	for _, fw := range scriptFrameworkPatterns {
		for _, re := range fw.patterns {
			if re.MatchString(content) {
				return fw.tag
			}
		}
	}
	if strings.Contains(strings.ToLower(filePath), "component") {
		return "react"
	}
	return fallback
}

func matchAll(re *regexp.Regexp, content string) []string {
	return dedupe(re.FindAllString(content, -1))
}

func leadingIndent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func splitArgs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lineOfOffset(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}
