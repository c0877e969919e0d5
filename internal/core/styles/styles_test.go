package styles

import (
	"testing"

	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	assert.Contains(t, names, DefaultTheme)
	assert.IsIncreasing(t, names)
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	p, ok := GetPalette("gruvbox")
	require.True(t, ok)
	SetTheme(p)
	assert.Equal(t, p, CurrentPalette)
	assert.Equal(t, p.Primary, *GlamourStyle().Heading.Color)
}

func TestColorForString_Deterministic(t *testing.T) {
	assert.Equal(t, ColorForString("Arrays"), ColorForString("Arrays"))
}

func TestStatusBadge(t *testing.T) {
	it := progress.New("a", "A", "", "Arrays", "Hashing")
	assert.Contains(t, StatusBadge(it, false), "unsolved")

	it.Status = progress.StatusSolved
	assert.Contains(t, StatusBadge(it, false), "solved")
	assert.Contains(t, StatusBadge(it, true), "due")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("use a **hash map**", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "hash map")
}
