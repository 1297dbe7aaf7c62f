package smartcompose

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-compose/internal/log"
	"github.com/teslashibe/go-compose/pkg/template"
)

func newActive(t *testing.T, now time.Time) *Controller {
	t.Helper()
	c := New(DefaultConfig(), log.Discard())
	id := NewRequestID()
	require.True(t, c.BeginProcessingAt(id, now))
	require.True(t, c.Activate(id, template.Thirds, 1.6, now))
	return c
}

func TestBeginProcessing_SingleInFlight(t *testing.T) {
	c := New(DefaultConfig(), log.Discard())

	first := NewRequestID()
	assert.True(t, c.BeginProcessing(first))
	assert.False(t, c.BeginProcessing(NewRequestID()), "second request must be rejected")
	assert.Equal(t, StateProcessing, c.State())
	assert.Equal(t, first, c.Snapshot().RequestID)
}

func TestActivate_RejectsStaleRequest(t *testing.T) {
	c := New(DefaultConfig(), log.Discard())
	now := time.Now()

	id := NewRequestID()
	require.True(t, c.BeginProcessingAt(id, now))

	assert.False(t, c.Activate(NewRequestID(), template.Thirds, 1.5, now))
	assert.Equal(t, StateProcessing, c.State())

	assert.True(t, c.Activate(id, template.Thirds, 1.5, now))
	snap := c.Snapshot()
	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, template.Thirds, snap.Template)
	assert.InDelta(t, 1.5, snap.TargetZoom, 1e-9)
	assert.Zero(t, snap.AlignedFrames)
}

func TestActivate_RequiresProcessing(t *testing.T) {
	c := New(DefaultConfig(), log.Discard())
	assert.False(t, c.Activate(NewRequestID(), template.Thirds, 1.5, time.Now()))
	assert.Equal(t, StateIdle, c.State())
}

func TestDecisionForFrame_FirstCommandOnFourthFrame(t *testing.T) {
	start := time.Now()
	c := newActive(t, start)

	step := 10 * time.Millisecond
	var fired []int
	var cmds []ZoomCommand
	for i := 1; i <= 8; i++ {
		cmd, ok := c.DecisionForFrame(start.Add(time.Duration(i)*step), template.Thirds, true, 0.9, false)
		if ok {
			fired = append(fired, i)
			cmds = append(cmds, cmd)
		}
	}

	require.NotEmpty(t, fired)
	assert.Equal(t, 4, fired[0])
	// 10ms frames: next command only after 50ms have passed.
	assert.Equal(t, []int{4}, fired)
	assert.InDelta(t, 1.6, cmds[0].Zoom, 1e-9)
	assert.Equal(t, template.Thirds, cmds[0].Template)

	cmd, ok := c.DecisionForFrame(start.Add(9*step), template.Thirds, true, 0.9, false)
	assert.True(t, ok, "50ms after the first command another may fire")
	assert.Equal(t, c.Snapshot().RequestID, cmd.RequestID)
}

func TestDecisionForFrame_LostFramesDecrement(t *testing.T) {
	start := time.Now()
	c := newActive(t, start)
	at := func(i int) time.Time { return start.Add(time.Duration(i) * 10 * time.Millisecond) }

	for i := 1; i <= 3; i++ {
		_, ok := c.DecisionForFrame(at(i), template.Thirds, true, 0.9, false)
		assert.False(t, ok)
	}
	assert.Equal(t, 3, c.Snapshot().AlignedFrames)

	_, ok := c.DecisionForFrame(at(4), template.Thirds, true, 0.9, true)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Snapshot().AlignedFrames)
	assert.Equal(t, StateActive, c.State(), "lost frames must not abort")

	_, ok = c.DecisionForFrame(at(5), template.Thirds, true, 0.05, false)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Snapshot().AlignedFrames)

	_, ok = c.DecisionForFrame(at(6), template.Thirds, false, 0.9, false)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Snapshot().AlignedFrames)

	_, ok = c.DecisionForFrame(at(7), template.Thirds, false, 0.9, false)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Snapshot().AlignedFrames, "counter never goes negative")
}

func TestDecisionForFrame_Watchdog(t *testing.T) {
	start := time.Now()
	c := newActive(t, start)

	_, ok := c.DecisionForFrame(start.Add(8*time.Second+time.Millisecond), template.Thirds, true, 0.9, false)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, c.State())
}

func TestDecisionForFrame_TemplateMismatchAborts(t *testing.T) {
	start := time.Now()
	c := newActive(t, start)

	var got []Transition
	c.OnTransition(func(tr Transition) { got = append(got, tr) })

	_, ok := c.DecisionForFrame(start.Add(time.Millisecond), template.Symmetry, true, 0.9, false)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, c.State())
	require.Len(t, got, 1)
	assert.Equal(t, StateActive, got[0].From)
	assert.Equal(t, StateIdle, got[0].To)
	assert.Equal(t, "template changed", got[0].Reason)
}

func TestDecisionForFrame_IdleIsNoop(t *testing.T) {
	c := New(DefaultConfig(), log.Discard())
	_, ok := c.DecisionForFrame(time.Now(), template.Thirds, true, 1, false)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, c.State())
}

func TestProcessingWatchdog(t *testing.T) {
	c := New(DefaultConfig(), log.Discard())
	start := time.Now()
	require.True(t, c.BeginProcessingAt(NewRequestID(), start))

	c.DecisionForFrame(start.Add(time.Second), template.Thirds, true, 1, false)
	assert.Equal(t, StateProcessing, c.State())

	c.DecisionForFrame(start.Add(9*time.Second), template.Thirds, true, 1, false)
	assert.Equal(t, StateIdle, c.State())
}

func TestCancelCompleteFail(t *testing.T) {
	c := New(DefaultConfig(), log.Discard())
	now := time.Now()

	id := NewRequestID()
	require.True(t, c.BeginProcessingAt(id, now))
	assert.False(t, c.FailProcessing(NewRequestID()))
	assert.True(t, c.FailProcessing(id))
	assert.Equal(t, StateIdle, c.State())

	c = newActive(t, now)
	assert.True(t, c.Complete())
	assert.False(t, c.Complete())
	assert.Equal(t, StateIdle, c.State())

	c = newActive(t, now)
	c.Cancel()
	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Template)
	assert.Zero(t, snap.TargetZoom)
}

func TestAdaptiveZoomStep(t *testing.T) {
	tests := []struct {
		delta float64
		want  float64
	}{
		{0, 0.007},
		{0.01, 0.007},
		{0.05, 0.0175},
		{0.1, 0.035},
		{1, 0.045},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, AdaptiveZoomStep(tt.delta), 1e-9, "delta %v", tt.delta)
	}

	c := New(DefaultConfig(), log.Discard())
	assert.InDelta(t, 0.035, c.AdaptiveZoomStep(0.1), 1e-9)
}

func TestController_ConcurrentAccess(t *testing.T) {
	start := time.Now()
	c := newActive(t, start)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.DecisionForFrame(start.Add(time.Duration(i)*time.Millisecond), template.Thirds, true, 0.9, false)
				_ = c.Snapshot()
				if g == 0 && i == 50 {
					c.BeginProcessing(NewRequestID())
				}
			}
		}(g)
	}
	wg.Wait()

	state := c.State()
	assert.Contains(t, []State{StateIdle, StateProcessing, StateActive}, state)
}
