package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_Reflexive(t *testing.T) {
	for _, s := range []string{"Luvas", "Capacete de Segurança X", "abc ltda", "  padded  "} {
		assert.InDelta(t, 1.0, Similarity(s, s), 0.0001, "input %q", s)
	}
}

func TestSimilarity_ExactAfterFolding(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("Proteção", "protecao"), 0.0001)
	assert.InDelta(t, 1.0, Similarity("LUVAS", " luvas "), 0.0001)
}

func TestSimilarity_Substring(t *testing.T) {
	got := Similarity("Luvas de Proteção", "Luvas")
	assert.InDelta(t, 0.8, got, 0.0001)
	assert.GreaterOrEqual(t, got, 0.7)

	// Symmetric.
	assert.InDelta(t, got, Similarity("Luvas", "Luvas de Proteção"), 0.0001)
}

func TestSimilarity_WordOverlap(t *testing.T) {
	// "capacete", "seguranca", "x" are common; max word count is 4.
	got := Similarity("Capacete de Segurança X", "Capacete Segurança X Pro")
	assert.InDelta(t, 0.7, got, 0.0001) // 3/4 capped at 0.7
	assert.Greater(t, got, MatchThreshold)
	assert.LessOrEqual(t, got, ExactThreshold)
}

func TestSimilarity_WordOverlapNotCapped(t *testing.T) {
	// 1 common word out of max 2 => 0.5, below the 0.7 cap.
	got := Similarity("Luvas Nitrilicas", "Luvas Latex")
	assert.InDelta(t, 0.5, got, 0.0001)
}

func TestSimilarity_NoOverlap(t *testing.T) {
	assert.Zero(t, Similarity("ABC Ltda", "XYZ Corp"))
}

func TestSimilarity_EmptyInputs(t *testing.T) {
	assert.Zero(t, Similarity("", ""))
	assert.Zero(t, Similarity("Luvas", ""))
	assert.Zero(t, Similarity("", "Luvas"))
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Capacete de Segurança X", "Capacete Segurança X Pro"},
		{"Luvas de Proteção", "Luvas"},
		{"Botina Couro", "Botina de Couro Premium"},
		{"ABC Ltda", "XYZ Corp"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), 0.0001,
			"pair %q / %q", p[0], p[1])
	}
}

func TestSimilarity_RepeatedWordsCountOnce(t *testing.T) {
	// "luvas" appears twice in b but counts once.
	got := Similarity("Luvas Premium", "Luvas Luvas Industrial")
	assert.InDelta(t, 1.0/3.0, got, 0.0001)
}
