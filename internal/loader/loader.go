// Package loader reads rig and animation scripts from YAML.
package loader

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-rig/internal/engine/anim"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/segment"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

func decode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// LoadRig reads a rig file and every animation file it references.
func LoadRig(path string) (*model.Prototype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read rig %s", path)
	}
	return ParseRig(path, data)
}

// ParseRig builds a prototype from rig YAML. file names the input in
// errors; animation paths are resolved relative to its directory.
func ParseRig(file string, data []byte) (*model.Prototype, error) {
	src := newSource(file, data)

	var doc rigDoc
	if err := decode(data, &doc); err != nil {
		return nil, src.wrap(err)
	}
	if doc.Name == "" {
		return nil, src.wrap(nodeError("rig", 1, "missing name"))
	}
	if len(doc.Segments) == 0 {
		return nil, src.wrap(nodeError("rig", 1, "no segments"))
	}

	b := segment.NewBuilder()
	var lines nodeLines
	for i := range doc.Segments {
		if err := addSegment(b, &lines, -1, &doc.Segments[i]); err != nil {
			return nil, src.wrap(err)
		}
	}
	graph, err := b.Build()
	if err != nil {
		return nil, src.wrap(causeError("segment", lines.of(err), err))
	}

	mesh := &model.Mesh{
		Vertices: make([]model.Vertex, len(doc.Vertices)),
		Indices:  doc.Indices,
	}
	for i, v := range doc.Vertices {
		if v.Index < 0 || v.Index > graph.HighIndex() {
			return nil, src.wrap(nodeError("vertex", v.line, "transform index %d outside [0, %d]", v.Index, graph.HighIndex()))
		}
		mesh.Vertices[i] = model.Vertex{Position: math.V3(v.X, v.Y, v.Z), Index: v.Index}
	}

	proto, err := model.NewPrototype(doc.Name, graph, mesh)
	if err != nil {
		return nil, src.wrap(causeError("mesh", 0, err))
	}

	dir := filepath.Dir(file)
	for _, ref := range doc.Anims {
		var tpl *anim.Template
		if ref.Inline != nil {
			tpl, err = buildAnim(ref.Inline)
			err = src.wrap(err)
		} else {
			tpl, err = LoadAnim(filepath.Join(dir, ref.Path))
		}
		if err != nil {
			return nil, err
		}
		if _, dup := proto.Anims[tpl.Name]; dup {
			return nil, src.wrap(nodeError("anim", ref.line, "duplicate animation %q", tpl.Name))
		}
		proto.AddAnim(tpl)
	}

	if logger.Enabled() {
		logger.Named("loader").Debug("rig loaded",
			zap.String("file", file),
			zap.String("name", proto.Name),
			zap.Int("segments", graph.Len()),
			zap.Int("high_index", graph.HighIndex()),
			zap.Strings("anims", proto.AnimNames()))
	}
	return proto, nil
}

// nodeLines maps builder arena ids to input lines.
type nodeLines struct {
	segments []int
	blends   []int
}

// of returns the input line of the node a Build error names.
func (n *nodeLines) of(err error) int {
	var be *segment.BuildError
	if !errors.As(err, &be) {
		return 0
	}
	ids := n.segments
	if be.Kind == "blend" {
		ids = n.blends
	}
	if be.ID < 0 || be.ID >= len(ids) {
		return 0
	}
	return ids[be.ID]
}

func addSegment(b *segment.Builder, lines *nodeLines, parent int, s *segmentDoc) error {
	if s.Name == "" {
		return nodeError("segment", s.line, "missing name")
	}
	if s.Index == nil {
		return nodeError("segment", s.line, "segment %q has no index", s.Name)
	}
	id, err := b.AddSegment(parent, s.Name, *s.Index,
		math.V3(s.Offset.X, s.Offset.Y, s.Offset.Z),
		math.V3(s.Rotation.X, s.Rotation.Y, s.Rotation.Z))
	if err != nil {
		return causeError("segment", s.line, err)
	}
	lines.segments = append(lines.segments, s.line)
	for _, bl := range s.Blends {
		if bl.Name == "" || bl.Index == nil {
			return nodeError("blend", bl.line, "blend needs a name and an index")
		}
		if _, err := b.AddBlend(id, bl.Name, *bl.Index, bl.Proportion); err != nil {
			return causeError("blend", bl.line, err)
		}
		lines.blends = append(lines.blends, bl.line)
	}
	for i := range s.Children {
		if err := addSegment(b, lines, id, &s.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// LoadAnim reads an animation file.
func LoadAnim(path string) (*anim.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read anim %s", path)
	}
	return ParseAnim(path, data)
}

// ParseAnim builds an animation template from YAML.
func ParseAnim(file string, data []byte) (*anim.Template, error) {
	src := newSource(file, data)
	var doc animDoc
	if err := decode(data, &doc); err != nil {
		return nil, src.wrap(err)
	}
	tpl, err := buildAnim(&doc)
	if err != nil {
		return nil, src.wrap(err)
	}
	return tpl, nil
}

func buildAnim(doc *animDoc) (*anim.Template, error) {
	if doc.Name == "" {
		return nil, nodeError("anim", doc.line, "missing name")
	}
	tpl := &anim.Template{Name: doc.Name, Flows: make([]anim.FlowTemplate, len(doc.Flows))}
	for fi, f := range doc.Flows {
		if len(f.Motions) > 0 && (f.Start < 0 || f.Start >= len(f.Motions)) {
			return nil, causeError("flow", f.line, errors.Wrapf(anim.ErrInvalidStart, "start %d of %d motions", f.Start, len(f.Motions)))
		}
		motions := make([]anim.Motion, len(f.Motions))
		for mi, m := range f.Motions {
			if m.Duration < 0 {
				return nil, causeError("motion", m.line, anim.ErrInvalidDuration)
			}
			acts := make([]anim.Act, len(m.Acts))
			for ai := range m.Acts {
				act, err := buildAct(&m.Acts[ai])
				if err != nil {
					return nil, err
				}
				acts[ai] = act
			}
			motions[mi] = anim.Motion{Acts: acts, Duration: m.Duration}
		}
		tpl.Flows[fi] = anim.FlowTemplate{Start: f.Start, Motions: motions}
	}
	return tpl, nil
}

func buildAct(a *actDoc) (anim.Act, error) {
	if a.Segment == "" {
		return anim.Act{}, nodeError("act", a.line, "missing segment")
	}
	if !a.Value.set {
		return anim.Act{}, nodeError("act", a.line, "missing value")
	}
	value := math.V3(a.Value.X, a.Value.Y, a.Value.Z)

	switch a.Kind {
	case "target":
		var field anim.Field
		switch a.Field {
		case "offset":
			field = anim.FieldOffset
		case "rotation":
			field = anim.FieldRotation
		default:
			return anim.Act{}, nodeError("act", a.line, "field must be offset or rotation, got %q", a.Field)
		}
		return anim.NewTarget(a.Segment, field, value), nil
	case "delta":
		if a.Field != "" && a.Field != "rotation" {
			return anim.Act{}, nodeError("act", a.line, "delta acts only move rotation, got %q", a.Field)
		}
		return anim.NewDelta(a.Segment, value), nil
	default:
		return anim.Act{}, nodeError("act", a.line, "kind must be target or delta, got %q", a.Kind)
	}
}
