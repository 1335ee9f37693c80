package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratevo/intel-cli/internal/model"
)

func TestClassifyThreat(t *testing.T) {
	tests := []struct {
		name       string
		competitor float64
		own        float64
		want       model.ThreatLevel
	}{
		{"ratio above 10 is high", 11_000_000, 1_000_000, model.ThreatHigh},
		{"ratio between 2 and 10 is medium", 3_000_000, 1_000_000, model.ThreatMedium},
		{"ratio below 2 is low", 500_000, 1_000_000, model.ThreatLow},
		{"ratio exactly 10 is medium", 10_000_000, 1_000_000, model.ThreatMedium},
		{"ratio exactly 2 is low", 2_000_000, 1_000_000, model.ThreatLow},
		{"zero own capital is high", 1_000_000, 0, model.ThreatHigh},
		{"negative own capital is high", 1_000_000, -5, model.ThreatHigh},
		{"both zero is high", 0, 0, model.ThreatHigh},
		{"zero competitor capital is low", 0, 1_000_000, model.ThreatLow},
		{"ratio 50 is high", 50_000_000, 1_000_000, model.ThreatHigh},
		{"ratio 0.2 is low", 200_000, 1_000_000, model.ThreatLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyThreat(tt.competitor, tt.own))
		})
	}
}

func TestClassifyThreat_DoesNotPanicOnZero(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = ClassifyThreat(1_000_000, 0)
	})
}
