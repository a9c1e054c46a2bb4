// Package referenceframe resolves rigid transforms between named frames from the set of
// parent/child links recorded with each calibration collection.
package referenceframe

import (
	"slices"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/calibeval/spatialmath"
)

// Link is one recorded transform. Transform maps coordinates in Child into Parent (T_parent_child).
type Link struct {
	Parent    string
	Child     string
	Transform spatialmath.RigidTransform
}

type edge struct {
	to        string
	transform spatialmath.RigidTransform // T_from_to
}

// FrameGraph is an undirected graph of frames. Links can be traversed against their direction by
// inverting the stored transform, so any two connected frames can be related.
type FrameGraph struct {
	name  string
	edges map[string][]edge
}

// NewFrameGraph creates an empty graph.
func NewFrameGraph(name string) *FrameGraph {
	return &FrameGraph{name: name, edges: map[string][]edge{}}
}

// NewFrameGraphFromLinks builds a graph from links.
func NewFrameGraphFromLinks(name string, links []Link) (*FrameGraph, error) {
	fg := NewFrameGraph(name)
	for _, l := range links {
		if err := fg.AddLink(l); err != nil {
			return nil, err
		}
	}
	return fg, nil
}

// Name returns the name of the graph.
func (fg *FrameGraph) Name() string {
	return fg.name
}

// AddLink inserts a link. Both frames are created if needed.
func (fg *FrameGraph) AddLink(l Link) error {
	if l.Parent == "" || l.Child == "" {
		return errors.Errorf("link must name both frames, got parent %q and child %q", l.Parent, l.Child)
	}
	if l.Parent == l.Child {
		return errors.Errorf("frame %q cannot be its own parent", l.Parent)
	}
	for _, e := range fg.edges[l.Parent] {
		if e.to == l.Child {
			return errors.Errorf("link between %q and %q already in frame graph", l.Parent, l.Child)
		}
	}
	fg.edges[l.Parent] = append(fg.edges[l.Parent], edge{to: l.Child, transform: l.Transform})
	fg.edges[l.Child] = append(fg.edges[l.Child], edge{to: l.Parent, transform: l.Transform.Inverse()})
	return nil
}

// FrameNames returns the sorted names of all frames in the graph.
func (fg *FrameGraph) FrameNames() []string {
	names := lo.Keys(fg.edges)
	sort.Strings(names)
	return names
}

func (fg *FrameGraph) frameExists(name string) bool {
	_, ok := fg.edges[name]
	return ok
}

// Path returns the frames visited going from parent to child, both included. The path is
// the shortest one in number of links.
func (fg *FrameGraph) Path(parent, child string) ([]string, error) {
	if !fg.frameExists(parent) {
		return nil, NewFrameMissingError(parent)
	}
	if !fg.frameExists(child) {
		return nil, NewFrameMissingError(child)
	}
	cameFrom := map[string]string{parent: ""}
	queue := []string{parent}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == child {
			break
		}
		for _, e := range fg.edges[current] {
			if _, seen := cameFrom[e.to]; !seen {
				cameFrom[e.to] = current
				queue = append(queue, e.to)
			}
		}
	}
	if _, ok := cameFrom[child]; !ok {
		return nil, NewNoPathError(parent, child)
	}
	path := []string{child}
	for f := child; f != parent; {
		f = cameFrom[f]
		path = append(path, f)
	}
	slices.Reverse(path)
	return path, nil
}

// Transform returns T_parent_child, the transform mapping coordinates in child into parent.
func (fg *FrameGraph) Transform(parent, child string) (spatialmath.RigidTransform, error) {
	path, err := fg.Path(parent, child)
	if err != nil {
		return spatialmath.RigidTransform{}, err
	}
	result := spatialmath.NewZeroTransform()
	for i := 0; i+1 < len(path); i++ {
		e, ok := lo.Find(fg.edges[path[i]], func(e edge) bool { return e.to == path[i+1] })
		if !ok {
			return spatialmath.RigidTransform{}, NewNoPathError(path[i], path[i+1])
		}
		result = spatialmath.Compose(result, e.transform)
	}
	return result, nil
}

// GetTransform resolves T_parent_child through the given links.
func GetTransform(parent, child string, links []Link) (spatialmath.RigidTransform, error) {
	fg, err := NewFrameGraphFromLinks("", links)
	if err != nil {
		return spatialmath.RigidTransform{}, err
	}
	return fg.Transform(parent, child)
}
