package tracking

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-compose/pkg/geom"
)

const frameInterval = 33 * time.Millisecond

func lost() *Observation {
	return &Observation{Lost: true, Source: SourceTracked}
}

func TestResilience_FallbackThenSingleReacquire(t *testing.T) {
	r := NewResilience(DefaultConfig())
	t0 := time.Unix(1000, 0)
	anchor := geom.Pt(0.5, 0.5)

	fix := &Observation{Point: geom.Pt(0.3, 0.6), Confidence: 0.9, Source: SourceTracked}
	if p := r.Update(fix, t0, anchor); p != nil {
		t.Fatalf("Expected no reacquire on a reliable frame, got %+v", p)
	}

	now := t0
	for i := 1; i <= 3; i++ {
		now = now.Add(frameInterval)
		obs := lost()
		if p := r.Update(obs, now, anchor); p != nil {
			t.Fatalf("Frame %d: expected no reacquire yet, got %+v", i, p)
		}
		if obs.Lost || obs.Source != SourceFallback {
			t.Errorf("Frame %d: expected fallback substitution, got %+v", i, obs)
		}
		if obs.Point != geom.Pt(0.3, 0.6) {
			t.Errorf("Frame %d: expected last reliable point, got %+v", i, obs.Point)
		}
		if obs.Confidence > 0.9 {
			t.Errorf("Frame %d: expected confidence <= 0.9, got %v", i, obs.Confidence)
		}
	}
	if r.Phase() != PhaseRecentLoss {
		t.Errorf("Expected %s, got %s", PhaseRecentLoss, r.Phase())
	}

	now = now.Add(frameInterval)
	p := r.Update(lost(), now, anchor)
	if p == nil {
		t.Fatal("Expected reacquire point on the 4th lost frame")
	}
	if *p != geom.Pt(0.3, 0.6) {
		t.Errorf("Expected reacquire at the last reliable point, got %+v", *p)
	}

	// Cooldown: nothing until ReacquireInterval has elapsed.
	reacquiredAt := now
	for now.Sub(reacquiredAt)+frameInterval < DefaultConfig().ReacquireInterval {
		now = now.Add(frameInterval)
		if p := r.Update(lost(), now, anchor); p != nil {
			t.Fatalf("Expected no reacquire %v after the last one", now.Sub(reacquiredAt))
		}
	}
	now = reacquiredAt.Add(DefaultConfig().ReacquireInterval)
	if p := r.Update(lost(), now, anchor); p == nil {
		t.Error("Expected a second reacquire once the cooldown elapsed")
	}
}

func TestResilience_ConfidenceDecays(t *testing.T) {
	r := NewResilience(DefaultConfig())
	t0 := time.Unix(1000, 0)
	r.Seed(geom.Pt(0.4, 0.4), 1.0, t0)

	early := lost()
	r.Update(early, t0.Add(100*time.Millisecond), geom.Center)
	late := lost()
	r.Update(late, t0.Add(800*time.Millisecond), geom.Center)

	if late.Confidence >= early.Confidence {
		t.Errorf("Expected confidence to decay: early %v, late %v", early.Confidence, late.Confidence)
	}
}

func TestResilience_StopsSynthesizingAfterGrace(t *testing.T) {
	r := NewResilience(DefaultConfig())
	t0 := time.Unix(1000, 0)
	r.Seed(geom.Pt(0.4, 0.4), 0.8, t0)

	obs := lost()
	r.Update(obs, t0.Add(time.Second), geom.Center)
	if !obs.Lost {
		t.Errorf("Expected observation to stay lost past the grace window, got %+v", obs)
	}
	if r.Phase() != PhaseSustainedLoss {
		t.Errorf("Expected %s, got %s", PhaseSustainedLoss, r.Phase())
	}
}

func TestResilience_ReacquireUsesFallbackAnchorWithoutFix(t *testing.T) {
	r := NewResilience(DefaultConfig())
	now := time.Unix(1000, 0)
	anchor := geom.Pt(1.4, -0.2)

	var got *geom.Point
	for i := 0; i < 4; i++ {
		now = now.Add(frameInterval)
		got = r.Update(lost(), now, anchor)
	}
	if got == nil {
		t.Fatal("Expected reacquire point")
	}
	if *got != geom.Pt(1, 0) {
		t.Errorf("Expected clamped anchor (1,0), got %+v", *got)
	}
}

func TestResilience_NonFiniteAnchorFallsBackToCenter(t *testing.T) {
	anchors := []geom.Point{
		geom.Pt(math.NaN(), 0.4),
		geom.Pt(0.4, math.Inf(1)),
	}
	for _, anchor := range anchors {
		r := NewResilience(DefaultConfig())
		now := time.Unix(1000, 0)

		var got *geom.Point
		for i := 0; i < 4; i++ {
			now = now.Add(frameInterval)
			got = r.Update(lost(), now, anchor)
		}
		if got == nil {
			t.Fatal("Expected reacquire point")
		}
		if *got != geom.Center {
			t.Errorf("Anchor %+v: expected center, got %+v", anchor, *got)
		}
	}
}

func TestResilience_LowConfidenceCountsAsLost(t *testing.T) {
	r := NewResilience(DefaultConfig())
	t0 := time.Unix(1000, 0)
	r.Seed(geom.Pt(0.6, 0.6), 0.7, t0)

	obs := &Observation{Point: geom.Pt(0.1, 0.1), Confidence: 0.1, Source: SourceTracked}
	r.Update(obs, t0.Add(frameInterval), geom.Center)
	if obs.Point != geom.Pt(0.6, 0.6) {
		t.Errorf("Expected low-confidence frame replaced by memory, got %+v", obs.Point)
	}
	if r.LostFrames() != 1 {
		t.Errorf("Expected 1 lost frame, got %d", r.LostFrames())
	}
}

func TestResilience_Reset(t *testing.T) {
	r := NewResilience(DefaultConfig())
	r.Seed(geom.Pt(0.2, 0.2), 1, time.Unix(1000, 0))
	r.Reset()

	if _, ok := r.LastReliable(); ok {
		t.Error("Expected no reliable point after reset")
	}
	if r.Phase() != PhaseIdle {
		t.Errorf("Expected %s, got %s", PhaseIdle, r.Phase())
	}
	if r.Config().LossGrace != DefaultConfig().LossGrace {
		t.Error("Expected config to survive reset")
	}
}
