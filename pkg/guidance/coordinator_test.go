package guidance

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-compose/internal/log"
	"github.com/teslashibe/go-compose/pkg/frame"
	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/rules"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
	"github.com/teslashibe/go-compose/pkg/stabilizer"
	"github.com/teslashibe/go-compose/pkg/template"
	"github.com/teslashibe/go-compose/pkg/tracking"
)

func flatFrame() frame.Frame {
	pix := make([]byte, 64*48)
	for i := range pix {
		pix[i] = 128
	}
	return frame.Frame{Width: 64, Height: 48, Layout: frame.LayoutGray, Pix: pix}
}

func tracked(x, y, conf float64) tracking.Observation {
	return tracking.Observation{Point: geom.Pt(x, y), Confidence: conf, Source: tracking.SourceTracked}
}

func lost() tracking.Observation {
	return tracking.Observation{Lost: true}
}

func newCoordinator(opts ...Option) *Coordinator {
	return New(DefaultConfig(), append([]Option{WithLogger(log.Discard())}, opts...)...)
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func TestProcess_ThirdsFromCenter(t *testing.T) {
	c := newCoordinator()
	out, ok := c.Process(Input{
		Sequence: 1,
		Frame:    flatFrame(),
		Template: "rule_of_thirds",
		Subject:  tracked(0.5, 0.5, 1.0),
	})
	if !ok {
		t.Fatal("Expected frame to be processed")
	}
	if out.Target == nil {
		t.Fatal("Expected a target")
	}

	onIntersection := false
	for _, x := range []float64{1.0 / 3, 2.0 / 3} {
		for _, y := range []float64{1.0 / 3, 2.0 / 3} {
			if geom.Distance(*out.Target, geom.Pt(x, y)) < 1e-9 {
				onIntersection = true
			}
		}
	}
	if !onIntersection {
		t.Errorf("Expected target on a thirds intersection, got %+v", *out.Target)
	}

	want := out.Target.Sub(geom.Pt(0.5, 0.5))
	if !sameSign(out.Guidance.DX, want.DX) || !sameSign(out.Guidance.DY, want.DY) {
		t.Errorf("Expected guidance signs to match %+v, got %+v", want, out.Guidance)
	}
}

func TestProcess_SymmetryWithoutEvidence(t *testing.T) {
	c := newCoordinator()
	out, _ := c.Process(Input{
		Sequence: 1,
		Frame:    flatFrame(),
		Template: "symmetry",
		Subject:  tracked(0.7, 0.5, 1.0),
	})

	if !out.Analysis.Empty() {
		t.Fatalf("Expected no analysis evidence on a flat frame, got %+v", out.Analysis)
	}
	if out.Target == nil || math.Abs(out.Target.X-0.5) > 1e-9 {
		t.Fatalf("Expected target axis 0.5, got %+v", out.Target)
	}
	if out.Guidance.DX >= 0 {
		t.Errorf("Expected dx < 0, got %v", out.Guidance.DX)
	}
	if math.Abs(out.Guidance.Strength-geom.Clamp(math.Hypot(out.Guidance.DX, out.Guidance.DY), 0, 1)) > 1e-12 {
		t.Errorf("Expected strength to equal the clamped magnitude, got %+v", out.Guidance)
	}
}

func TestProcess_UnsupportedTemplate(t *testing.T) {
	c := newCoordinator()
	out, _ := c.Process(Input{Sequence: 1, Frame: flatFrame(), Template: "fisheye", Subject: tracked(0.2, 0.2, 1)})

	if out.Template != template.Other {
		t.Errorf("Expected %s, got %s", template.Other, out.Template)
	}
	if out.Guidance != geom.ZeroGuidance() {
		t.Errorf("Expected zero guidance, got %+v", out.Guidance)
	}
}

func TestProcess_DropsStaleFrames(t *testing.T) {
	c := newCoordinator()
	if _, ok := c.Process(Input{Sequence: 5, Frame: flatFrame(), Subject: tracked(0.5, 0.5, 1)}); !ok {
		t.Fatal("Expected first frame to be processed")
	}
	for _, seq := range []uint64{5, 4, 0} {
		if _, ok := c.Process(Input{Sequence: seq, Frame: flatFrame(), Subject: tracked(0.5, 0.5, 1)}); ok {
			t.Errorf("Expected sequence %d to be dropped", seq)
		}
	}
	if _, ok := c.Process(Input{Sequence: 6, Frame: flatFrame(), Subject: tracked(0.5, 0.5, 1)}); !ok {
		t.Error("Expected sequence 6 to be processed")
	}

	c.Reset()
	if _, ok := c.Process(Input{Sequence: 1, Frame: flatFrame(), Subject: tracked(0.5, 0.5, 1)}); !ok {
		t.Error("Expected reset to clear the sequence check")
	}
}

func TestProcess_TemplateChangeResetsStabilizer(t *testing.T) {
	c := newCoordinator()
	start := time.Now()

	for i := 0; i < 3; i++ {
		c.Process(Input{
			Sequence: uint64(i + 1),
			Time:     start.Add(time.Duration(i) * 33 * time.Millisecond),
			Frame:    flatFrame(),
			Template: "rule_of_thirds",
			Subject:  tracked(0.5, 0.5, 1),
		})
	}

	out, _ := c.Process(Input{
		Sequence: 4,
		Time:     start.Add(100 * time.Millisecond),
		Frame:    flatFrame(),
		Template: "symmetry",
		Subject:  tracked(0.8, 0.5, 1),
	})
	if out.Template != template.Symmetry {
		t.Fatalf("Expected symmetry, got %s", out.Template)
	}
	// The first update after a reset adopts the raw vector.
	if math.Abs(out.Guidance.DX-out.Raw.DX) > 1e-9 || math.Abs(out.Guidance.DY-out.Raw.DY) > 1e-9 {
		t.Errorf("Expected stable guidance to equal raw after template change, got %+v vs %+v", out.Guidance, out.Raw)
	}
}

func TestProcess_ResilienceBridgesLoss(t *testing.T) {
	c := newCoordinator()
	start := time.Now()
	at := func(i int) time.Time { return start.Add(time.Duration(i) * 33 * time.Millisecond) }

	c.Process(Input{Sequence: 1, Time: at(0), Frame: flatFrame(), Subject: tracked(0.3, 0.6, 0.9)})

	for i := 1; i <= 3; i++ {
		out, _ := c.Process(Input{Sequence: uint64(i + 1), Time: at(i), Frame: flatFrame(), Subject: lost()})
		if out.SubjectSource != tracking.SourceFallback {
			t.Errorf("frame %d: expected fallback subject, got %s", i, out.SubjectSource)
		}
		if geom.Distance(out.Subject, geom.Pt(0.3, 0.6)) > 1e-9 {
			t.Errorf("frame %d: expected last reliable point, got %+v", i, out.Subject)
		}
		if out.Phase != tracking.PhaseRecentLoss {
			t.Errorf("frame %d: expected %s, got %s", i, tracking.PhaseRecentLoss, out.Phase)
		}
		if out.Reacquire != nil {
			t.Errorf("frame %d: unexpected reacquire", i)
		}
	}

	out, _ := c.Process(Input{Sequence: 5, Time: at(4), Frame: flatFrame(), Subject: lost()})
	if out.Reacquire == nil {
		t.Fatal("Expected a reacquire point on the fourth lost frame")
	}
	if geom.Distance(*out.Reacquire, geom.Pt(0.3, 0.6)) > 1e-9 {
		t.Errorf("Expected reacquire at last reliable point, got %+v", *out.Reacquire)
	}

	out, _ = c.Process(Input{Sequence: 6, Time: at(5), Frame: flatFrame(), Subject: lost()})
	if out.Reacquire != nil {
		t.Error("Expected no second reacquire inside the cooldown")
	}
}

func TestProcess_SmartComposeZooms(t *testing.T) {
	c := newCoordinator()
	start := time.Now()

	sc := c.SmartCompose()
	id := smartcompose.NewRequestID()
	if !sc.BeginProcessingAt(id, start) || !sc.Activate(id, template.Thirds, 1.8, start) {
		t.Fatal("Expected smart compose to activate")
	}

	var zoom *smartcompose.ZoomCommand
	for i := 0; i < 20 && zoom == nil; i++ {
		out, _ := c.Process(Input{
			Sequence: uint64(i + 1),
			Time:     start.Add(time.Duration(i) * 100 * time.Millisecond),
			Frame:    flatFrame(),
			Template: "rule_of_thirds",
			Subject:  tracked(1.0/3, 1.0/3, 0.9),
		})
		zoom = out.Zoom
	}

	if zoom == nil {
		t.Fatal("Expected a zoom command once the subject held on an intersection")
	}
	if zoom.Zoom != 1.8 || zoom.RequestID != id {
		t.Errorf("Expected zoom 1.8 for %s, got %+v", id, *zoom)
	}
}

func TestProcess_SmartComposeAbortsOnTemplateSwitch(t *testing.T) {
	c := newCoordinator()
	start := time.Now()

	sc := c.SmartCompose()
	id := smartcompose.NewRequestID()
	sc.BeginProcessingAt(id, start)
	sc.Activate(id, template.Thirds, 1.5, start)

	c.Process(Input{Sequence: 1, Time: start, Frame: flatFrame(), Template: "golden_spiral", Subject: tracked(0.4, 0.4, 1)})
	if sc.State() != smartcompose.StateIdle {
		t.Errorf("Expected idle after template switch, got %s", sc.State())
	}
}

type stubCoach struct{ calls int }

func (s *stubCoach) Advise(out Output) string {
	s.calls++
	return "move " + string(out.Template)
}

func TestCoach(t *testing.T) {
	c := newCoordinator()
	if c.HasCoach() {
		t.Error("Expected no coach by default")
	}
	out, _ := c.Process(Input{Sequence: 1, Frame: flatFrame(), Subject: tracked(0.5, 0.5, 1)})
	if out.Coaching != "" {
		t.Errorf("Expected no coaching, got %q", out.Coaching)
	}

	coach := &stubCoach{}
	c = newCoordinator(WithCoach(coach))
	if !c.HasCoach() {
		t.Fatal("Expected coach to be attached")
	}
	out, _ = c.Process(Input{Sequence: 1, Frame: flatFrame(), Template: "diagonal", Subject: tracked(0.5, 0.5, 1)})
	if out.Coaching != "move diagonal" || coach.calls != 1 {
		t.Errorf("Expected coaching from the backend, got %q after %d calls", out.Coaching, coach.calls)
	}
}

func TestRulesObserver(t *testing.T) {
	var seen []rules.Result
	c := newCoordinator(WithRulesObserver(func(r rules.Result) { seen = append(seen, r) }))

	c.Process(Input{Sequence: 1, Frame: flatFrame(), Subject: tracked(0.5, 0.5, 1)})
	c.Process(Input{Sequence: 2, Frame: flatFrame(), Subject: tracked(0.5, 0.5, 1)})

	if len(seen) != 2 {
		t.Fatalf("Expected 2 observed results, got %d", len(seen))
	}
	if last, ok := c.Last(); !ok || last.Sequence != 2 {
		t.Errorf("Expected last output for sequence 2, got %+v", last)
	}
}

func TestSetTuningParams(t *testing.T) {
	c := newCoordinator()
	hold := 0.09
	c.SetTuningParams(TuningParams{
		Stabilizer: &stabilizer.TuningParams{HoldEnter: hold, HoldRelease: 0.2},
		Resilience: &tracking.TuningParams{LostFrames: 6},
	})

	cfg := c.Config()
	if cfg.Stabilizer.HoldEnter != hold {
		t.Errorf("Expected HoldEnter %v, got %v", hold, cfg.Stabilizer.HoldEnter)
	}
	if cfg.Tracking.LostFramesBeforeReacquire != 6 {
		t.Errorf("Expected 6 lost frames, got %d", cfg.Tracking.LostFramesBeforeReacquire)
	}
	if cfg.Analysis != DefaultConfig().Analysis {
		t.Error("Expected analysis config to be untouched")
	}

	p := c.TuningParams()
	if p.Stabilizer == nil || p.Stabilizer.HoldEnter != hold {
		t.Errorf("Expected tuning to report HoldEnter %v, got %+v", hold, p.Stabilizer)
	}
}

func TestProcess_DiagonalBranchHeldAcrossFrames(t *testing.T) {
	c := newCoordinator()
	start := time.Unix(0, 0)
	xs := []float64{0.45, 0.498, 0.502, 0.498, 0.502, 0.502, 0.498}
	for i, x := range xs {
		out, ok := c.Process(Input{
			Sequence: uint64(i + 1),
			Time:     start.Add(time.Duration(i) * 33 * time.Millisecond),
			Frame:    flatFrame(),
			Template: "diagonal",
			Subject:  tracked(x, 0.3, 1.0),
		})
		if !ok {
			t.Fatalf("Expected frame %d to be processed", i+1)
		}
		if out.Diagonal != geom.DiagonalMain {
			t.Errorf("Frame %d at x=%.3f: expected main diagonal held, got %s", i+1, x, out.Diagonal)
		}
	}

	c.Reset()
	out, _ := c.Process(Input{Sequence: 1, Frame: flatFrame(), Subject: tracked(0.502, 0.3, 1.0)})
	if out.Diagonal != geom.DiagonalAnti {
		t.Errorf("Expected reset to forget the held branch, got %s", out.Diagonal)
	}
}
