package segment

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Graph construction errors.
var (
	ErrEmptyGraph     = errors.New("segment graph has no segments")
	ErrDuplicateIndex = errors.New("duplicate transform index")
	ErrDuplicateName  = errors.New("duplicate segment name")
	ErrUnknownParent  = errors.New("unknown parent segment")
	ErrNegativeIndex  = errors.New("negative transform index")
)

// BuildError names the segment or blend that made Build fail.
type BuildError struct {
	Kind  string // "segment" or "blend"
	ID    int    // arena id returned by AddSegment or AddBlend
	Name  string
	Index int
	Owner string // earlier holder of Index, for duplicate indices
	Err   error
}

func (e *BuildError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s %q reuses index %d of %q: %v", e.Kind, e.Name, e.Index, e.Owner, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Builder assembles a Graph from loader output. Transform indices are
// assigned by the caller and validated by Build.
type Builder struct {
	segments []Segment
	blends   []Blend
	roots    []int
	err      error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddSegment appends a segment under parent (-1 for a new root) and returns
// its arena id.
func (b *Builder) AddSegment(parent int, name string, index int, offset, rotation math.Vec3) (int, error) {
	if parent < -1 || parent >= len(b.segments) {
		return -1, fmt.Errorf("segment %q: parent %d: %w", name, parent, ErrUnknownParent)
	}
	if index < 0 {
		return -1, fmt.Errorf("segment %q: index %d: %w", name, index, ErrNegativeIndex)
	}

	id := len(b.segments)
	b.segments = append(b.segments, Segment{
		Local:  transform.NewLocal(offset, rotation),
		name:   name,
		index:  index,
		parent: parent,
		dirty:  true,
	})
	b.segments[id].Box.Reset()

	if parent == -1 {
		b.roots = append(b.roots, id)
	} else {
		b.segments[parent].children = append(b.segments[parent].children, id)
	}
	return id, nil
}

// AddBlend attaches a blend to the owner segment and returns its arena id.
func (b *Builder) AddBlend(owner int, name string, index int, proportion float32) (int, error) {
	if owner < 0 || owner >= len(b.segments) {
		return -1, fmt.Errorf("blend %q: owner %d: %w", name, owner, ErrUnknownParent)
	}
	if index < 0 {
		return -1, fmt.Errorf("blend %q: index %d: %w", name, index, ErrNegativeIndex)
	}

	id := len(b.blends)
	b.blends = append(b.blends, Blend{
		Local:      transform.NewLocal(math.Vec3{}, math.Vec3{}),
		name:       name,
		owner:      owner,
		index:      index,
		proportion: proportion,
	})
	b.segments[owner].blends = append(b.segments[owner].blends, id)
	return id, nil
}

// Build validates index uniqueness and name uniqueness and returns the graph.
// The builder must not be reused afterwards.
func (b *Builder) Build() (*Graph, error) {
	if len(b.segments) == 0 {
		return nil, ErrEmptyGraph
	}

	high := 0
	owners := make(map[int]string, len(b.segments)+len(b.blends))
	claim := func(kind string, id int, name string, index int) error {
		if prev, ok := owners[index]; ok {
			return &BuildError{Kind: kind, ID: id, Name: name, Index: index, Owner: prev, Err: ErrDuplicateIndex}
		}
		owners[index] = name
		if index > high {
			high = index
		}
		return nil
	}

	byName := make(map[string]int, len(b.segments))
	for i := range b.segments {
		s := &b.segments[i]
		if _, ok := byName[s.name]; ok {
			return nil, &BuildError{Kind: "segment", ID: i, Name: s.name, Index: s.index, Err: ErrDuplicateName}
		}
		byName[s.name] = i
		if err := claim("segment", i, s.name, s.index); err != nil {
			return nil, err
		}
	}
	for i := range b.blends {
		if err := claim("blend", i, b.blends[i].name, b.blends[i].index); err != nil {
			return nil, err
		}
	}

	byIndex := make([]int, high+1)
	for i := range byIndex {
		byIndex[i] = -1
	}
	for i := range b.segments {
		byIndex[b.segments[i].index] = i
	}

	return &Graph{
		segments:  b.segments,
		blends:    b.blends,
		roots:     b.roots,
		highIndex: high,
		lookup:    &lookup{byName: byName, byIndex: byIndex},
	}, nil
}
