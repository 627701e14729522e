package vdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	children := Normalize(
		"a", "b",
		NewElement("span", nil),
		[]*VNode{NewText("c"), nil},
		[]any{1, NewEmpty()},
		nil,
	)
	require.Len(t, children, 4)
	assert.Equal(t, "ab", children[0].Text)
	assert.Equal(t, "span", children[1].Tag)
	assert.Equal(t, "c1", children[2].Text)
	assert.True(t, children[3].IsComment)
}

func TestSameVNode(t *testing.T) {
	a := NewElement("div", &Data{Key: 1})
	assert.True(t, SameVNode(a, NewElement("div", &Data{Key: 1})))
	assert.False(t, SameVNode(a, NewElement("div", &Data{Key: 2})))
	assert.False(t, SameVNode(a, NewElement("div", nil)))
	assert.False(t, SameVNode(a, NewElement("p", &Data{Key: 1})))
	assert.False(t, SameVNode(NewEmpty(), NewText("")))
	assert.False(t, SameVNode(a, nil))
}
