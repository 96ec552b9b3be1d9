package loader

import (
	"math"
	"slices"

	"gopkg.in/yaml.v3"
)

// checkKeys rejects mapping keys outside allowed. Custom unmarshalers
// decode through fresh decoders, which do not inherit KnownFields.
func checkKeys(n *yaml.Node, op string, allowed ...string) error {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(n.Content); i += 2 {
		k := n.Content[i]
		if !slices.Contains(allowed, k.Value) {
			return nodeError(op, k.Line, "unknown key %q", k.Value)
		}
	}
	return nil
}

type vec3 struct {
	X, Y, Z float32
	set     bool
}

func (v *vec3) UnmarshalYAML(n *yaml.Node) error {
	var xs []float32
	if err := n.Decode(&xs); err != nil {
		return nodeError("vector", n.Line, "expected [x, y, z]: %v", err)
	}
	if len(xs) != 3 {
		return nodeError("vector", n.Line, "expected 3 components, got %d", len(xs))
	}
	v.X, v.Y, v.Z, v.set = xs[0], xs[1], xs[2], true
	return nil
}

type blendDoc struct {
	Name       string  `yaml:"name"`
	Index      *int    `yaml:"index"`
	Proportion float32 `yaml:"proportion"`
	line       int
}

func (b *blendDoc) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "blend", "name", "index", "proportion"); err != nil {
		return err
	}
	type plain blendDoc
	if err := n.Decode((*plain)(b)); err != nil {
		return err
	}
	b.line = n.Line
	return nil
}

type segmentDoc struct {
	Name     string       `yaml:"name"`
	Index    *int         `yaml:"index"`
	Offset   vec3         `yaml:"offset"`
	Rotation vec3         `yaml:"rotation"`
	Blends   []blendDoc   `yaml:"blends"`
	Children []segmentDoc `yaml:"children"`
	line     int
}

func (s *segmentDoc) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "segment", "name", "index", "offset", "rotation", "blends", "children"); err != nil {
		return err
	}
	type plain segmentDoc
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line = n.Line
	return nil
}

// vertexDoc is one [x, y, z, index] row.
type vertexDoc struct {
	X, Y, Z float32
	Index   int
	line    int
}

func (v *vertexDoc) UnmarshalYAML(n *yaml.Node) error {
	var row []float64
	if err := n.Decode(&row); err != nil {
		return nodeError("vertex", n.Line, "expected [x, y, z, index]: %v", err)
	}
	if len(row) != 4 {
		return nodeError("vertex", n.Line, "expected 4 values, got %d", len(row))
	}
	if row[3] != math.Trunc(row[3]) {
		return nodeError("vertex", n.Line, "transform index %v is not an integer", row[3])
	}
	v.X, v.Y, v.Z = float32(row[0]), float32(row[1]), float32(row[2])
	v.Index = int(row[3])
	v.line = n.Line
	return nil
}

type actDoc struct {
	Kind    string `yaml:"kind"`
	Segment string `yaml:"segment"`
	Field   string `yaml:"field"`
	Value   vec3   `yaml:"value"`
	line    int
}

func (a *actDoc) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "act", "kind", "segment", "field", "value"); err != nil {
		return err
	}
	type plain actDoc
	if err := n.Decode((*plain)(a)); err != nil {
		return err
	}
	a.line = n.Line
	return nil
}

type motionDoc struct {
	Duration float32  `yaml:"duration"`
	Acts     []actDoc `yaml:"acts"`
	line     int
}

func (m *motionDoc) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "motion", "duration", "acts"); err != nil {
		return err
	}
	type plain motionDoc
	if err := n.Decode((*plain)(m)); err != nil {
		return err
	}
	m.line = n.Line
	return nil
}

type flowDoc struct {
	Start   int         `yaml:"start"`
	Motions []motionDoc `yaml:"motions"`
	line    int
}

func (f *flowDoc) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "flow", "start", "motions"); err != nil {
		return err
	}
	type plain flowDoc
	if err := n.Decode((*plain)(f)); err != nil {
		return err
	}
	f.line = n.Line
	return nil
}

type animDoc struct {
	Name  string    `yaml:"name"`
	Flows []flowDoc `yaml:"flows"`
	line  int
}

func (a *animDoc) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "anim", "name", "flows"); err != nil {
		return err
	}
	type plain animDoc
	if err := n.Decode((*plain)(a)); err != nil {
		return err
	}
	a.line = n.Line
	return nil
}

// animRef is either a path to an animation file or an inline animation.
type animRef struct {
	Path   string
	Inline *animDoc
	line   int
}

func (r *animRef) UnmarshalYAML(n *yaml.Node) error {
	r.line = n.Line
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&r.Path)
	case yaml.MappingNode:
		r.Inline = &animDoc{}
		return n.Decode(r.Inline)
	default:
		return nodeError("anim", n.Line, "expected a file path or an inline animation")
	}
}

type rigDoc struct {
	Name     string       `yaml:"name"`
	Segments []segmentDoc `yaml:"segments"`
	Vertices []vertexDoc  `yaml:"vertices"`
	Indices  []uint32     `yaml:"indices"`
	Anims    []animRef    `yaml:"anims"`
}
