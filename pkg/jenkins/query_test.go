package jenkins

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreeBuilder(t *testing.T) {
	tree := NewTree("name", "color").
		WithSubfield(
			Object("lastBuild").
				WithField("number").
				WithField("url"),
		).
		WithSubfield(
			Object("actions").WithSubfield(
				Object("causes").WithField("shortDescription"),
			),
		)

	assert.Equal(t, "name,color,lastBuild[number,url],actions[causes[shortDescription]]", tree.String())
}

func TestQueryApply(t *testing.T) {
	values := url.Values{}
	Depth(2).Apply(values)
	assert.Equal(t, "2", values.Get("depth"))

	values = url.Values{}
	Tree(NewTree("jobs").WithSubfield(Object("builds").WithField("number"))).Apply(values)
	assert.Equal(t, "jobs,builds[number]", values.Get("tree"))
}
