// Package meshio loads print geometry from files and turns it into toolpaths.
//
// Geometry arrives either as ready-ordered polylines or as a mesh whose edges
// have to be chained into polylines first.
package meshio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"extrude-gcode/internal/curves"
	"extrude-gcode/internal/logging"
	"extrude-gcode/internal/toolpath"
)

// Names of the per-vertex mesh attributes read for variable layer height and
// variable speed.
const (
	LayerHeightAttribute = "LayerHeight"
	SpeedAttribute       = "Speed"
)

// DefaultMergeDistance is the spacing below which consecutive mesh points
// are merged.
const DefaultMergeDistance = 0.1

var (
	ErrMissingAttribute = errors.New("mesh attribute missing")
	ErrUnknownFormat    = errors.New("unknown geometry format")
)

// Mesh is a vertex and edge soup, optionally with per-vertex float
// attributes keyed by name.
type Mesh struct {
	Vertices   []mgl64.Vec3
	Edges      []curves.Edge
	Attributes map[string][]float64
}

type ReconstructOptions struct {
	VariableLayerHeight bool
	VariableSpeed       bool

	// MergeDistance drops points closer than this to the previous kept
	// point. 0 keeps every point.
	MergeDistance float64
}

func (m *Mesh) attribute(name string, wanted bool) ([]float64, error) {
	if !wanted {
		return nil, nil
	}
	values, ok := m.Attributes[name]
	if !ok {
		return nil, fmt.Errorf("the mesh does not contain the attribute '%s': %w", name, ErrMissingAttribute)
	}
	if len(values) != len(m.Vertices) {
		return nil, fmt.Errorf("attribute '%s' has %d values for %d vertices: %w", name, len(values), len(m.Vertices), toolpath.ErrAttributeLength)
	}
	return values, nil
}

// Polylines chains the mesh edges into polylines. Requested attributes must
// be present on the mesh; they are checked before any reconstruction is done.
func (m *Mesh) Polylines(opt ReconstructOptions) ([]toolpath.Polyline, error) {
	layerHeights, err := m.attribute(LayerHeightAttribute, opt.VariableLayerHeight)
	if err != nil {
		return nil, err
	}
	speeds, err := m.attribute(SpeedAttribute, opt.VariableSpeed)
	if err != nil {
		return nil, err
	}

	res, err := curves.Find(m.Edges, len(m.Vertices))
	if err != nil {
		return nil, err
	}

	var polylines []toolpath.Polyline
	for i, c := range res.Chains {
		pts := make([]mgl64.Vec3, len(c.Indices))
		var lh, sp []float64
		if layerHeights != nil {
			lh = make([]float64, len(c.Indices))
		}
		if speeds != nil {
			sp = make([]float64, len(c.Indices))
		}
		for k, v := range c.Indices {
			pts[k] = m.Vertices[v]
			if lh != nil {
				lh[k] = layerHeights[v]
			}
			if sp != nil {
				sp[k] = speeds[v]
			}
		}

		p, err := toolpath.NewPolyline(pts, c.Cyclic, lh, sp)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", i, err)
		}
		p = p.Merged(opt.MergeDistance)
		if len(p.Points) < 2 {
			logging.Logger().Warn("dropping chain shorter than the merge distance", "chain", i, "points", len(c.Indices))
			continue
		}
		polylines = append(polylines, p)
	}

	return polylines, nil
}

// Geometry is what a file provides: ordered polylines, a mesh, or both.
type Geometry struct {
	Polylines []toolpath.Polyline
	Mesh      *Mesh
}

// Toolpath reconstructs any mesh and validates the combined polylines.
func (g *Geometry) Toolpath(opt ReconstructOptions) (*toolpath.Toolpath, error) {
	polylines := append([]toolpath.Polyline(nil), g.Polylines...)

	if g.Mesh != nil {
		more, err := g.Mesh.Polylines(opt)
		if err != nil {
			return nil, err
		}
		polylines = append(polylines, more...)
	}

	return toolpath.New(polylines)
}

// Load reads geometry from path, choosing the format by file extension.
func Load(path string) (*Geometry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSONFile(path)
	case ".stl":
		return ReadSTLFile(path)
	case ".dxf":
		return ReadDXFFile(path)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// welder assigns one index per distinct position.
type welder struct {
	index    map[mgl64.Vec3]int
	vertices []mgl64.Vec3
}

func newWelder() *welder {
	return &welder{index: make(map[mgl64.Vec3]int)}
}

func (w *welder) weld(v mgl64.Vec3) int {
	if i, ok := w.index[v]; ok {
		return i
	}
	w.vertices = append(w.vertices, v)
	w.index[v] = len(w.vertices) - 1
	return len(w.vertices) - 1
}
