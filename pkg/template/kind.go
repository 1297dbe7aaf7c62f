// Package template maps composition templates to target points. Each
// template is a Resolver: a pure function from the subject position and the
// frame analysis to the point the subject should move toward.
package template

import "strings"

// Kind is a canonical template id.
type Kind string

const (
	Symmetry         Kind = "symmetry"
	Thirds           Kind = "rule_of_thirds"
	GoldenSpiral     Kind = "golden_spiral"
	Diagonal         Kind = "diagonal"
	LeadingLines     Kind = "leading_lines"
	NegativeSpace    Kind = "negative_space"
	Framing          Kind = "framing"
	PortraitHeadroom Kind = "portrait_headroom"
	Triangle         Kind = "triangle"
	LayeredDepth     Kind = "layered_depth"

	// Other is any unsupported id. It always yields zero guidance.
	Other Kind = "other"
)

var all = []Kind{
	Symmetry,
	Thirds,
	GoldenSpiral,
	Diagonal,
	LeadingLines,
	NegativeSpace,
	Framing,
	PortraitHeadroom,
	Triangle,
	LayeredDepth,
}

// All returns the supported templates in display order.
func All() []Kind {
	out := make([]Kind, len(all))
	copy(out, all)
	return out
}

var aliases = map[string]Kind{
	"center":             Symmetry,
	"centered":           Symmetry,
	"symmetrical":        Symmetry,
	"thirds":             Thirds,
	"rule-of-thirds":     Thirds,
	"ruleofthirds":       Thirds,
	"golden":             GoldenSpiral,
	"golden_ratio":       GoldenSpiral,
	"golden-spiral":      GoldenSpiral,
	"phi":                GoldenSpiral,
	"diagonals":          Diagonal,
	"leading-lines":      LeadingLines,
	"leading":            LeadingLines,
	"negative-space":     NegativeSpace,
	"negative":           NegativeSpace,
	"frame":              Framing,
	"frame_within_frame": Framing,
	"portrait":           PortraitHeadroom,
	"headroom":           PortraitHeadroom,
	"portrait-headroom":  PortraitHeadroom,
	"triangular":         Triangle,
	"layers":             LayeredDepth,
	"layered":            LayeredDepth,
	"depth":              LayeredDepth,
	"layered-depth":      LayeredDepth,
}

// Parse maps an id to its canonical Kind. Matching ignores case and
// surrounding space. Unknown ids map to Other.
func Parse(id string) Kind {
	s := strings.ToLower(strings.TrimSpace(id))
	k := Kind(s)
	if k.Supported() {
		return k
	}
	if alias, ok := aliases[s]; ok {
		return alias
	}
	return Other
}

// IsCenterAlias reports whether id is the raw "center" id. Parse maps it to
// Symmetry, but it is not a template in its own right.
func IsCenterAlias(id string) bool {
	return strings.ToLower(strings.TrimSpace(id)) == "center"
}

// Supported reports whether k is one of the canonical templates.
func (k Kind) Supported() bool {
	for _, s := range all {
		if k == s {
			return true
		}
	}
	return false
}

// String returns the canonical id.
func (k Kind) String() string {
	return string(k)
}

// Label returns a human-readable name.
func (k Kind) Label() string {
	switch k {
	case Symmetry:
		return "Symmetry"
	case Thirds:
		return "Rule of Thirds"
	case GoldenSpiral:
		return "Golden Spiral"
	case Diagonal:
		return "Diagonal"
	case LeadingLines:
		return "Leading Lines"
	case NegativeSpace:
		return "Negative Space"
	case Framing:
		return "Framing"
	case PortraitHeadroom:
		return "Portrait Headroom"
	case Triangle:
		return "Triangle"
	case LayeredDepth:
		return "Layered Depth"
	}
	return "Other"
}
