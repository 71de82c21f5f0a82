package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipscope/internal/config"
)

func newTestMockGen() *MockGenerator {
	return NewMockGenerator(NewClassifier(config.ScoringConfig{}))
}

func TestGenerate_Deterministic(t *testing.T) {
	g := newTestMockGen()

	a := g.Generate("8.8.8.8")
	b := g.Generate("8.8.8.8")

	assert.Equal(t, a, b, "same IP must yield an identical analysis")
	assert.Equal(t, a.ID, b.ID)
}

func TestGenerate_DistinctIPsDiffer(t *testing.T) {
	g := newTestMockGen()

	a := g.Generate("8.8.8.8")
	b := g.Generate("1.1.1.1")

	assert.NotEqual(t, a.ID, b.ID)
	// The signals are drawn from different seeds; at minimum the
	// coordinates jitter apart.
	assert.NotEqual(t, a.Signal, b.Signal)
}

func TestGenerate_SelfConsistent(t *testing.T) {
	g := newTestMockGen()
	c := NewClassifier(config.ScoringConfig{})

	for _, ip := range []string{"8.8.8.8", "1.1.1.1", "203.0.113.7", "2001:db8::1"} {
		a := g.Generate(ip)

		require.NotNil(t, a)
		assert.Equal(t, ip, a.IPAddress)
		assert.Equal(t, []string{"mock"}, a.Sources)
		assert.True(t, a.AnalyzedAt.IsZero(), "timestamp is stamped by the caller")
		assert.False(t, a.Signal.Empty())

		// The detection must be exactly what the classifier says about
		// the synthetic signal.
		assert.Equal(t, c.Classify(a.Signal, ip), a.Detection)
	}
}

func TestGenerate_IPVersion(t *testing.T) {
	g := newTestMockGen()

	assert.Equal(t, 4, g.Generate("203.0.113.7").IPVersion)
	assert.Equal(t, 6, g.Generate("2001:db8::1").IPVersion)
}

func TestGenerate_ScoreWithinRange(t *testing.T) {
	g := newTestMockGen()

	ips := []string{
		"8.8.8.8", "1.1.1.1", "9.9.9.9", "203.0.113.7", "198.51.100.23",
		"192.0.2.55", "185.230.125.1", "45.83.91.2", "116.202.0.1", "2001:db8::1",
	}
	for _, ip := range ips {
		a := g.Generate(ip)
		assert.GreaterOrEqual(t, a.Detection.RiskScore, 0, "ip %s", ip)
		assert.LessOrEqual(t, a.Detection.RiskScore, 100, "ip %s", ip)
	}
}
