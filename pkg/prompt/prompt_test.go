package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	out := Render("Q: {question}\nC: {retrieved_context}", map[string]string{
		"question":          "what is x",
		"retrieved_context": "x is y",
	})
	assert.Equal(t, "Q: what is x\nC: x is y", out)
}

func TestRender_RepeatedPlaceholder(t *testing.T) {
	out := Render("{a} and {a}", map[string]string{"a": "x"})
	assert.Equal(t, "x and x", out)
}

func TestRender_MissingVars(t *testing.T) {
	template := "Q: {question}"

	out := Render(template, map[string]string{})
	assert.Equal(t, template, out)

	// Stable under re-application.
	assert.Equal(t, out, Render(out, map[string]string{}))
}

func TestRender_EmptyValue(t *testing.T) {
	out := Render("[{question}]", map[string]string{"question": ""})
	assert.Equal(t, "[]", out)
}

func TestRender_SubstitutedTextNotRescanned(t *testing.T) {
	// A value that happens to look like another placeholder must survive
	// verbatim, regardless of map iteration order.
	for range 20 {
		out := Render("{a}{b}", map[string]string{"a": "{b}", "b": "X"})
		assert.Equal(t, "{b}X", out)
	}
}

func TestRender_UnknownPlaceholderKept(t *testing.T) {
	out := Render("{known} {unknown}", map[string]string{"known": "v"})
	assert.Equal(t, "v {unknown}", out)
}
