package rules

import (
	"math"
	"testing"

	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/template"
	"github.com/teslashibe/go-compose/pkg/tracking"
)

func tracked(x, y, conf float64) tracking.Observation {
	return tracking.Observation{Point: geom.Pt(x, y), Confidence: conf, Source: tracking.SourceTracked}
}

func TestCompute_UnsupportedTemplate(t *testing.T) {
	e := New(DefaultConfig())
	for _, k := range []template.Kind{template.Other, template.Kind("bokeh")} {
		res := e.Compute(Input{Template: k, Subject: tracked(0.2, 0.2, 1)})
		if res.Guidance != geom.ZeroGuidance() {
			t.Errorf("%s: expected zero guidance, got %+v", k, res.Guidance)
		}
		if res.Target != nil || res.Zone != nil || res.Diagonal != "" {
			t.Errorf("%s: expected no metadata, got %+v", k, res)
		}
		if res.Template != template.Other {
			t.Errorf("Expected template other, got %s", res.Template)
		}
	}
}

func TestCompute_ThirdsFromCenter(t *testing.T) {
	e := New(DefaultConfig())
	res := e.Compute(Input{Template: template.Parse("rule_of_thirds"), Subject: tracked(0.5, 0.5, 1)})
	if res.Target == nil {
		t.Fatal("Expected target")
	}
	tgt := *res.Target
	onThird := func(v float64) bool {
		return math.Abs(v-1.0/3) < 1e-9 || math.Abs(v-2.0/3) < 1e-9
	}
	if !onThird(tgt.X) || !onThird(tgt.Y) {
		t.Errorf("Expected a thirds intersection, got %+v", tgt)
	}
	if math.Signbit(res.Guidance.DX) != math.Signbit(tgt.X-0.5) || res.Guidance.DX == 0 {
		t.Errorf("Expected dx sign to match target, got %v for target %+v", res.Guidance.DX, tgt)
	}
	if math.Signbit(res.Guidance.DY) != math.Signbit(tgt.Y-0.5) || res.Guidance.DY == 0 {
		t.Errorf("Expected dy sign to match target, got %v for target %+v", res.Guidance.DY, tgt)
	}
}

func TestCompute_SymmetryWithoutEvidence(t *testing.T) {
	e := New(DefaultConfig())
	res := e.Compute(Input{Template: template.Symmetry, Subject: tracked(0.7, 0.5, 1)})
	if res.Target == nil || res.Target.X != 0.5 {
		t.Fatalf("Expected axis at 0.5, got %+v", res.Target)
	}
	if res.Guidance.DX >= 0 {
		t.Errorf("Expected dx < 0, got %v", res.Guidance.DX)
	}
}

func TestCompute_BoundsPushInward(t *testing.T) {
	e := New(DefaultConfig())
	for _, k := range template.All() {
		res := e.Compute(Input{Template: k, Subject: tracked(0.02, 0.5, 1)})
		if res.Guidance.DX <= 0 {
			t.Errorf("%s: expected dx > 0 near the left edge, got %v", k, res.Guidance.DX)
		}
	}
}

func TestCompute_GuidanceInvariants(t *testing.T) {
	e := New(DefaultConfig())
	for _, k := range template.All() {
		for x := 0.0; x <= 1.0; x += 0.1 {
			for y := 0.0; y <= 1.0; y += 0.1 {
				for _, conf := range []float64{0.1, 0.5, 1} {
					g := e.Compute(Input{Template: k, Subject: tracked(x, y, conf)}).Guidance
					want := geom.Clamp(math.Hypot(g.DX, g.DY), 0, 1)
					if g.Strength != want {
						t.Fatalf("%s (%.1f,%.1f): strength %v, want %v", k, x, y, g.Strength, want)
					}
					if g.Confidence < 0 || g.Confidence > 1 {
						t.Fatalf("%s: confidence %v out of range", k, g.Confidence)
					}
				}
			}
		}
	}
}

func TestResolveSubject_Priority(t *testing.T) {
	e := New(DefaultConfig())
	tap := geom.Pt(0.3, 0.7)
	auto := geom.Pt(0.6, 0.4)

	tests := []struct {
		name   string
		in     Input
		want   geom.Point
		source tracking.Source
	}{
		{
			name:   "tracked wins",
			in:     Input{Subject: tracked(0.1, 0.2, 0.9), UserAnchor: &tap, AutoFocusAnchor: auto},
			want:   geom.Pt(0.1, 0.2),
			source: tracking.SourceTracked,
		},
		{
			name:   "lost tracker falls to tap",
			in:     Input{Subject: tracking.Observation{Point: geom.Pt(0.1, 0.2), Confidence: 0.9, Lost: true}, UserAnchor: &tap, AutoFocusAnchor: auto},
			want:   tap,
			source: tracking.SourceUserTap,
		},
		{
			name:   "weak tracker falls to tap",
			in:     Input{Subject: tracked(0.1, 0.2, 0.1), UserAnchor: &tap, AutoFocusAnchor: auto},
			want:   tap,
			source: tracking.SourceUserTap,
		},
		{
			name:   "auto anchor last",
			in:     Input{Subject: tracking.Observation{Lost: true}, AutoFocusAnchor: auto},
			want:   auto,
			source: tracking.SourceAutoAnchor,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, source := e.ResolveSubject(tc.in)
			if got != tc.want || source != tc.source {
				t.Errorf("Expected %+v from %s, got %+v from %s", tc.want, tc.source, got, source)
			}
		})
	}
}

func TestResolveSubject_PortraitUsesEyeLine(t *testing.T) {
	e := New(DefaultConfig())
	eye := geom.Pt(0.5, 0.45)
	face := &tracking.Face{Box: geom.Rect{X: 0.4, Y: 0.3, W: 0.2, H: 0.3}, Confidence: 0.9, EyeLine: &eye}

	got, _, _ := e.ResolveSubject(Input{Template: template.PortraitHeadroom, Subject: tracked(0.5, 0.6, 0.9), Face: face})
	if got != eye {
		t.Errorf("Expected eye line %+v, got %+v", eye, got)
	}

	got, _, _ = e.ResolveSubject(Input{Template: template.Thirds, Subject: tracked(0.5, 0.6, 0.9), Face: face})
	if got != geom.Pt(0.5, 0.6) {
		t.Errorf("Expected tracked subject for non-portrait template, got %+v", got)
	}

	face.Confidence = 0.2
	got, _, _ = e.ResolveSubject(Input{Template: template.PortraitHeadroom, Subject: tracked(0.5, 0.6, 0.9), Face: face})
	if got != geom.Pt(0.5, 0.6) {
		t.Errorf("Expected weak face ignored, got %+v", got)
	}
}

func TestObserverAndLast(t *testing.T) {
	var seen []Result
	e := New(DefaultConfig(), WithObserver(func(r Result) { seen = append(seen, r) }))

	if _, ok := e.Last(); ok {
		t.Error("Expected no last result before Compute")
	}
	res := e.Compute(Input{Template: template.Diagonal, Subject: tracked(0.2, 0.25, 1)})

	if len(seen) != 1 {
		t.Fatalf("Expected observer called once, got %d", len(seen))
	}
	last, ok := e.Last()
	if !ok || last.Guidance != res.Guidance {
		t.Errorf("Expected last result to match, got %+v", last)
	}
	if last.Diagonal != geom.DiagonalMain {
		t.Errorf("Expected main diagonal, got %s", last.Diagonal)
	}
}
