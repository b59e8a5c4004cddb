package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: PolicyPassthrough},
		{in: "passthrough", want: PolicyPassthrough},
		{in: " Monotonic ", want: PolicyMonotonic},
		{in: "smooth", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTrackerPassthroughKeepsRegressions(t *testing.T) {
	tr := NewTracker("")
	assert.Equal(t, PolicyPassthrough, tr.Policy())

	_, ok := tr.Observe(Event{Percent: 60, Rule: RulePercent})
	require.True(t, ok)
	got, ok := tr.Observe(Event{Percent: 40, Rule: RulePercent})
	require.True(t, ok)
	assert.Equal(t, 40, got.Percent)
}

func TestTrackerMonotonic(t *testing.T) {
	tr := NewTracker(PolicyMonotonic)

	_, ok := tr.Observe(Event{Percent: 60, Label: "Reading: 60%", Rule: RulePercent})
	require.True(t, ok)

	shown, ok := tr.Observe(Event{Percent: 40, Label: "Reading: 40%", Rule: RulePercent})
	assert.False(t, ok)
	assert.Equal(t, 60, shown.Percent)

	// A new phase starts a fresh operation.
	shown, ok = tr.Observe(Event{Percent: 5, Label: "Verifying...", Rule: RulePhase})
	assert.True(t, ok)
	assert.Equal(t, "Verifying...", shown.Label)

	cur, seen := tr.Current()
	assert.True(t, seen)
	assert.Equal(t, 5, cur.Percent)

	tr.Reset()
	_, seen = tr.Current()
	assert.False(t, seen)
}
