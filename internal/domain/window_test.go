package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustWindow(t *testing.T, startHour, endHour int) TimeWindow {
	t.Helper()
	day := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)
	return TimeWindow{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestTimeWindow_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a        TimeWindow
		b        TimeWindow
		expected bool
	}{
		{
			name:     "partial overlap",
			a:        mustWindow(t, 9, 11),
			b:        mustWindow(t, 10, 12),
			expected: true,
		},
		{
			name:     "containment",
			a:        mustWindow(t, 9, 17),
			b:        mustWindow(t, 10, 11),
			expected: true,
		},
		{
			name:     "identical windows",
			a:        mustWindow(t, 9, 10),
			b:        mustWindow(t, 9, 10),
			expected: true,
		},
		{
			name:     "back-to-back windows do not overlap",
			a:        mustWindow(t, 10, 11),
			b:        mustWindow(t, 11, 12),
			expected: false,
		},
		{
			name:     "disjoint windows",
			a:        mustWindow(t, 9, 10),
			b:        mustWindow(t, 14, 15),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Overlaps(tt.b))
			// Overlap is symmetric
			assert.Equal(t, tt.expected, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTimeWindow_Contains(t *testing.T) {
	parent := mustWindow(t, 9, 17)

	assert.True(t, parent.Contains(mustWindow(t, 10, 11)))
	assert.True(t, parent.Contains(mustWindow(t, 9, 17)))
	assert.False(t, parent.Contains(mustWindow(t, 8, 10)))
	assert.False(t, parent.Contains(mustWindow(t, 16, 18)))
}

func TestTimeWindow_IsValid(t *testing.T) {
	assert.True(t, mustWindow(t, 9, 10).IsValid())
	assert.False(t, mustWindow(t, 10, 9).IsValid())
	assert.False(t, mustWindow(t, 10, 10).IsValid())
}

func TestTimeWindow_Hours(t *testing.T) {
	assert.InDelta(t, 8.0, mustWindow(t, 9, 17).Hours(), 0.0001)
}
