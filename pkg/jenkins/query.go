package jenkins

import (
	"net/url"
	"strconv"
	"strings"
)

// Query customizes which parts of an object Jenkins serializes.
type Query interface {
	Apply(values url.Values)
}

// Depth requests nested objects down to the given level.
type Depth int

// Apply implements Query.
func (d Depth) Apply(values url.Values) {
	values.Set("depth", strconv.Itoa(int(d)))
}

type treeQuery struct {
	tree *TreeBuilder
}

func (t treeQuery) Apply(values url.Values) {
	values.Set("tree", t.tree.String())
}

// Tree restricts the response to the fields described by the builder.
func Tree(tree *TreeBuilder) Query {
	return treeQuery{tree: tree}
}

// TreeBuilder describes a `tree` selector such as
// `name,lastBuild[number,url]`.
type TreeBuilder struct {
	name   string
	fields []*TreeBuilder
}

// NewTree returns a selector with the given top level fields.
func NewTree(fields ...string) *TreeBuilder {
	t := &TreeBuilder{}

	for _, field := range fields {
		t.fields = append(t.fields, &TreeBuilder{name: field})
	}

	return t
}

// Object returns a nested selector named name.
func Object(name string) *TreeBuilder {
	return &TreeBuilder{name: name}
}

// WithField appends a plain field.
func (t *TreeBuilder) WithField(name string) *TreeBuilder {
	t.fields = append(t.fields, &TreeBuilder{name: name})
	return t
}

// WithSubfield appends a nested selector.
func (t *TreeBuilder) WithSubfield(sub *TreeBuilder) *TreeBuilder {
	t.fields = append(t.fields, sub)
	return t
}

func (t *TreeBuilder) String() string {
	parts := make([]string, 0, len(t.fields))

	for _, field := range t.fields {
		parts = append(parts, field.String())
	}

	inner := strings.Join(parts, ",")

	switch {
	case t.name == "":
		return inner
	case len(t.fields) == 0:
		return t.name
	default:
		return t.name + "[" + inner + "]"
	}
}
