package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// contentPreviewLimit bounds the source excerpt sent to the model
const contentPreviewLimit = 3000

// complexityRiskThreshold marks elements the heuristics flag as risky to modify
const complexityRiskThreshold = 10

// Generator is the completion surface the enhancer needs
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// insights holds the parsed sections of a model response
type insights struct {
	Purpose               string
	ArchitectureDecisions []string
	BreakingChanges       []string
	Dependencies          []string
}

// Enhancer annotates analyses with purpose refinements, architecture notes,
// and breaking-change risks. With no generator configured, or when generation
// fails, it falls back to structural heuristics; enhancement never fails an
// indexing run.
type Enhancer struct {
	generator Generator
}

// NewEnhancer creates an enhancer. generator may be nil for heuristics-only mode.
func NewEnhancer(generator Generator) *Enhancer {
	return &Enhancer{generator: generator}
}

// Enhance fills BreakingChanges and ArchitectureDecisions on the analysis,
// refining Purpose when the model offers a better one
func (e *Enhancer) Enhance(ctx context.Context, fa *types.FileAnalysis, content []byte) {
	if e.generator == nil {
		e.heuristics(fa)
		return
	}

	response, err := e.generator.Generate(ctx, buildPrompt(fa, content))
	if err != nil {
		log.Printf("llm enhancement failed for %s: %v", fa.FilePath, err)
		e.heuristics(fa)
		return
	}

	parsed := parseResponse(response)
	fa.BreakingChanges = parsed.BreakingChanges
	fa.ArchitectureDecisions = parsed.ArchitectureDecisions
	if parsed.Purpose != "" {
		fa.Purpose = parsed.Purpose
	}
}

// heuristics derives risk notes from structural signals alone
func (e *Enhancer) heuristics(fa *types.FileAnalysis) {
	var breaking []string

	if len(fa.RouteRecords()) > 0 {
		breaking = append(breaking, "Modifying API routes may break client applications")
	}
	if len(fa.ModelRecords()) > 0 {
		breaking = append(breaking, "Changing database models requires migration")
	}

	complexCount := 0
	for _, elem := range fa.Elements {
		if elem.Complexity > complexityRiskThreshold {
			complexCount++
		}
	}
	if complexCount > 0 {
		breaking = append(breaking,
			fmt.Sprintf("High complexity functions (%d) - changes may introduce bugs", complexCount))
	}

	fa.BreakingChanges = breaking
}

// buildPrompt renders the structured analysis prompt
func buildPrompt(fa *types.FileAnalysis, content []byte) string {
	preview := string(content)
	if len(preview) > contentPreviewLimit {
		preview = preview[:contentPreviewLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this source file and provide insights:\n\n")
	fmt.Fprintf(&b, "File: %s\n", fa.FilePath)
	fmt.Fprintf(&b, "Elements: %d functions/classes\n", len(fa.Elements))
	fmt.Fprintf(&b, "API Routes: %d\n", len(fa.RouteRecords()))
	fmt.Fprintf(&b, "Models: %d\n\n", len(fa.ModelRecords()))
	fmt.Fprintf(&b, "Code Preview:\n```\n%s\n```\n\n", preview)
	b.WriteString(`Provide analysis in this exact format:

PURPOSE:
<One sentence describing the main purpose of this file>

ARCHITECTURE_DECISIONS:
- <Key architectural decision or pattern used>
- <Another architectural decision if applicable>

BREAKING_CHANGES:
- <Potential breaking change if this file is modified>
- <Another risk if applicable>

DEPENDENCIES:
- <Critical dependency this file relies on>
- <Another dependency if applicable>
`)
	return b.String()
}

// parseResponse extracts the labeled sections from a model response.
// Unlabeled leading text is ignored; list items outside a section are dropped.
func parseResponse(response string) insights {
	var out insights
	section := ""

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.Contains(line, "PURPOSE:"):
			section = "purpose"
		case strings.Contains(line, "ARCHITECTURE_DECISIONS:"):
			section = "architecture"
		case strings.Contains(line, "BREAKING_CHANGES:"):
			section = "breaking"
		case strings.Contains(line, "DEPENDENCIES:"):
			section = "dependencies"
		case strings.HasPrefix(line, "- "):
			item := strings.TrimPrefix(line, "- ")
			switch section {
			case "architecture":
				out.ArchitectureDecisions = append(out.ArchitectureDecisions, item)
			case "breaking":
				out.BreakingChanges = append(out.BreakingChanges, item)
			case "dependencies":
				out.Dependencies = append(out.Dependencies, item)
			}
		case section == "purpose" && line != "":
			out.Purpose = line
		}
	}

	return out
}
