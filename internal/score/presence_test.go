package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitalPresence(t *testing.T) {
	tests := []struct {
		name      string
		website   bool
		linkedin  bool
		social    bool
		newsCount int
		want      int
	}{
		{"no signals is base", false, false, false, 0, 20},
		{"website only", true, false, false, 0, 45},
		{"linkedin only", false, true, false, 0, 45},
		{"social only", false, false, true, 0, 35},
		{"one news item", false, false, false, 1, 30},
		{"two news items no bonus", false, false, false, 2, 30},
		{"three news items with bonus", false, false, false, 3, 35},
		{"everything maxes at clamp boundary", true, true, true, 3, 100},
		{"everything with light news", true, true, true, 1, 95},
		{"website and linkedin", true, true, false, 0, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DigitalPresence(tt.website, tt.linkedin, tt.social, tt.newsCount))
		})
	}
}

func TestDigitalPresence_NeverExceeds100(t *testing.T) {
	assert.Equal(t, 100, DigitalPresence(true, true, true, 50))
}
