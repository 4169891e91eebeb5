package analyzer

import (
	"testing"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoAnalyzer_ValidFile(t *testing.T) {
	content := `package testpkg

import (
	"fmt"
	"strings"
)

// User represents a user in the system
type User struct {
	ID   int
	Name string
}

// GetName returns the user's name
func (u *User) GetName() string {
	return u.Name
}

// NewUser creates a new user
func NewUser(id int, name string) *User {
	fmt.Println(strings.ToUpper(name))
	return &User{ID: id, Name: name}
}
`

	a := NewGoAnalyzer()
	fa, err := a.Analyze("user.go", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"fmt", "strings"}, fa.Imports)
	assert.NotEmpty(t, fa.ContentHash)
	assert.Equal(t, "go", fa.Framework)

	byName := elementsByName(fa)
	require.Contains(t, byName, "User")
	require.Contains(t, byName, "GetName")
	require.Contains(t, byName, "NewUser")

	user := byName["User"]
	assert.Equal(t, types.KindClass, user.Kind)
	assert.True(t, user.Exported)
	assert.Equal(t, "User represents a user in the system", user.Docstring)

	newUser := byName["NewUser"]
	assert.Equal(t, types.KindFunction, newUser.Kind)
	assert.Equal(t, "func NewUser(id int, name string) *User", newUser.Signature)
	assert.Contains(t, newUser.Dependencies, "fmt.Println")
	assert.Contains(t, newUser.Dependencies, "strings.ToUpper")
}

func TestGoAnalyzer_SyntaxError(t *testing.T) {
	a := NewGoAnalyzer()
	_, err := a.Analyze("broken.go", []byte("package x\nfunc ]{"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSyntax)
}

func TestGoAnalyzer_Complexity(t *testing.T) {
	simple := `package x
func add(a, b int) int { return a + b }
`
	a := NewGoAnalyzer()
	fa, err := a.Analyze("add.go", []byte(simple))
	require.NoError(t, err)
	require.Len(t, fa.Elements, 1)
	assert.Equal(t, 1, fa.Elements[0].Complexity)
	assert.Empty(t, fa.Elements[0].Dependencies)

	branchy := `package x
func classify(n int) string {
	if n < 0 {
		return "negative"
	}
	for i := 0; i < n; i++ {
		if i%2 == 0 && i > 2 {
			n++
		}
	}
	return "done"
}
`
	fa2, err := a.Analyze("classify.go", []byte(branchy))
	require.NoError(t, err)
	// 1 + two ifs + one for + one &&
	assert.Equal(t, 5, fa2.Elements[0].Complexity)
}

func TestGoAnalyzer_ComplexityMonotonic(t *testing.T) {
	base := `package x
func f(n int) int {
	if n > 0 {
		n++
	}
	return n
}
`
	moreBranches := `package x
func f(n int) int {
	if n > 0 {
		n++
	}
	if n > 10 {
		n--
	}
	return n
}
`
	a := NewGoAnalyzer()
	fa1, err := a.Analyze("f.go", []byte(base))
	require.NoError(t, err)
	fa2, err := a.Analyze("f.go", []byte(moreBranches))
	require.NoError(t, err)
	assert.Greater(t, fa2.Elements[0].Complexity, fa1.Elements[0].Complexity)
}

func TestGoAnalyzer_RouteDetection(t *testing.T) {
	content := `package api

func Register(r Router) {
	r.Get("/users/{id}", getUser)
	r.Post("/users", createUser)
	r.HandleFunc("/health", healthCheck)
}
`
	a := NewGoAnalyzer()
	fa, err := a.Analyze("routes.go", []byte(content))
	require.NoError(t, err)

	routes := fa.RouteRecords()
	require.Len(t, routes, 3)

	assert.Equal(t, []string{"GET"}, routes[0].Route.Methods)
	assert.Equal(t, "/users/{id}", routes[0].Route.Path)
	assert.Equal(t, "getUser", routes[0].Route.Handler)
	assert.Equal(t, []string{"POST"}, routes[1].Route.Methods)
	assert.Equal(t, []string{"ANY"}, routes[2].Route.Methods)

	assert.Contains(t, fa.Purpose, "3 routes")
}

func TestGoAnalyzer_ModelDetection(t *testing.T) {
	content := `package models

type Account struct {
	gorm.Model
	Email   string
	Balance int64
}
`
	a := NewGoAnalyzer()
	fa, err := a.Analyze("account.go", []byte(content))
	require.NoError(t, err)

	models := fa.ModelRecords()
	require.Len(t, models, 1)
	assert.Equal(t, "Account", models[0].Name)
	assert.Equal(t, "gorm", models[0].Model.Dialect)
	assert.Equal(t, []types.ModelField{
		{Name: "Email", Type: "string"},
		{Name: "Balance", Type: "int64"},
	}, models[0].Model.Fields)
}

func TestGoAnalyzer_Directives(t *testing.T) {
	content := `package x

//go:noinline
func heavy() {}
`
	a := NewGoAnalyzer()
	fa, err := a.Analyze("heavy.go", []byte(content))
	require.NoError(t, err)
	require.Len(t, fa.Elements, 1)
	assert.Equal(t, []string{"go:noinline"}, fa.Elements[0].Decorators)
}

func elementsByName(fa *types.FileAnalysis) map[string]types.CodeElement {
	out := make(map[string]types.CodeElement, len(fa.Elements))
	for _, e := range fa.Elements {
		out[e.Name] = e
	}
	return out
}
