package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"done", StatusDone, true},
		{"terminé", StatusDone, true},
		{"TERMINE", StatusDone, true},
		{"Completed", StatusDone, true},
		{"in_progress", StatusInProgress, true},
		{"in progress", StatusInProgress, true},
		{"In-Progress", StatusInProgress, true},
		{"en cours", StatusInProgress, true},
		{"  to do ", StatusToDo, true},
		{"pending", StatusToDo, true},
		{"à faire", StatusToDo, true},
		{"A_FAIRE", StatusToDo, true},
		{"en retard", StatusOverdue, true},
		{"overdue", StatusOverdue, true},
		{"blocked", Status("blocked"), false},
		{"  On Hold ", Status("On Hold"), false},
		{"", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestStatusBucket(t *testing.T) {
	assert.Equal(t, StatusDone, StatusBucket("fini"))
	assert.Equal(t, StatusUnknown, StatusBucket("blocked"))
	assert.Equal(t, StatusUnknown, StatusBucket(""))
}

func TestStatusRankAndWireNames(t *testing.T) {
	assert.Less(t, StatusToDo.Rank(), StatusInProgress.Rank())
	assert.Less(t, StatusInProgress.Rank(), StatusOverdue.Rank())
	assert.Less(t, StatusOverdue.Rank(), StatusDone.Rank())
	assert.Equal(t, len(Statuses), StatusUnknown.Rank())

	assert.Equal(t, "pending", ProjectWireStatus(StatusToDo))
	assert.Equal(t, "in_progress", ProjectWireStatus(StatusInProgress))
	assert.Equal(t, "done", ProjectWireStatus(StatusDone))

	for _, s := range Statuses {
		back, ok := NormalizeStatus(ProjectWireStatus(s))
		assert.True(t, ok)
		assert.Equal(t, s, back)
	}
}

func TestNormalizePriority(t *testing.T) {
	p, ok := NormalizePriority("Haute")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	p, ok = NormalizePriority("moyenne")
	assert.True(t, ok)
	assert.Equal(t, PriorityMedium, p)

	p, ok = NormalizePriority("LOW")
	assert.True(t, ok)
	assert.Equal(t, PriorityLow, p)

	p, ok = NormalizePriority("someday")
	assert.False(t, ok)
	assert.Equal(t, Priority("someday"), p)
	assert.Equal(t, 0, p.Weight())
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, ClampProgress(-10))
	assert.Equal(t, 25, ClampProgress(30))
	assert.Equal(t, 50, ClampProgress(50))
	assert.Equal(t, 100, ClampProgress(180))
	assert.True(t, ValidProgress(75))
	assert.False(t, ValidProgress(60))
}
