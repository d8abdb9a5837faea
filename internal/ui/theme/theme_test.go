package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dori/teamboard/internal/model"
)

func TestByName(t *testing.T) {
	for _, th := range Available() {
		got, ok := ByName(th.Name)
		assert.True(t, ok, th.Name)
		assert.Equal(t, th.Name, got.Name)
	}
	_, ok := ByName("solarized")
	assert.False(t, ok)
}

func TestNextWraps(t *testing.T) {
	defer SetTheme(Current.Theme)

	seen := map[string]bool{}
	for range Available() {
		next := Next()
		seen[next.Name] = true
		SetTheme(next)
	}
	assert.Len(t, seen, len(Available()))
}

func TestStatusColor(t *testing.T) {
	th := Nord
	assert.Equal(t, th.StatusOverdue, th.StatusColor(model.StatusOverdue))
	assert.Equal(t, th.StatusUnknown, th.StatusColor(model.StatusUnknown))
	assert.Equal(t, th.PriorityHigh, th.PriorityColor("haute"))
	assert.Equal(t, th.Subtle, th.PriorityColor("whenever"))
}

func TestPalettesDeriveBoardColors(t *testing.T) {
	for _, th := range Available() {
		assert.Equal(t, th.Warning, th.StatusToDo, th.Name)
		assert.Equal(t, th.Success, th.StatusDone, th.Name)
		assert.Equal(t, th.Error, th.StatusOverdue, th.Name)
		assert.Equal(t, th.Subtle, th.StatusUnknown, th.Name)
		assert.NotEqual(t, th.PriorityMedium, th.PriorityHigh, th.Name)
	}
}
