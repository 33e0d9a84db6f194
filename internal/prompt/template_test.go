package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render("Museum: {{museum}} ({{museum}}), level {{level}}", map[string]string{
		"museum": "Lviv {{level}}",
		"level":  "adult",
	})
	require.NoError(t, err)
	assert.Equal(t, "Museum: Lviv {{level}} (Lviv {{level}}), level adult", out)

	_, err = Render("{{a}} {{b}}", map[string]string{"a": "x"})
	assert.EqualError(t, err, "missing template variables: b")
}

func TestExtractVariables(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, ExtractVariables("{{b}} {{a}} {{b}} {not}"))
	assert.Empty(t, ExtractVariables("plain"))
}

func TestList(t *testing.T) {
	assert.Equal(t, "icons, maps", List([]string{" icons", "", "maps "}, "none"))
	assert.Equal(t, "none", List(nil, "none"))
}

func TestBuiltinTemplatesRender(t *testing.T) {
	vars := map[string]string{}
	for _, tmpl := range []Template{TourPlan, TourPreview, Chips, Preview, StoryIntro} {
		for _, v := range ExtractVariables(tmpl.System + tmpl.User) {
			vars[v] = "x"
		}
	}
	for _, tmpl := range []Template{TourPlan, TourPreview, Chips, Preview, StoryIntro} {
		sys, usr, err := tmpl.Render(vars)
		require.NoError(t, err, tmpl.Name)
		assert.NotContains(t, sys+usr, "{{", tmpl.Name)
	}
}
