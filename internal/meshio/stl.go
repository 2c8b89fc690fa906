package meshio

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"

	"extrude-gcode/internal/curves"
)

// ReadSTLFile loads the boundary of an STL surface as a mesh.
func ReadSTLFile(path string) (*Geometry, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Geometry{Mesh: BoundaryMesh(solid)}, nil
}

// BoundaryMesh welds the triangle corners of solid by exact position and
// keeps the edges used by exactly one triangle, i.e. the outline of an open
// surface. A degenerate triangle with two equal corners is read as a single
// wire edge, which lets STL files carry plain polylines.
func BoundaryMesh(solid *stl.Solid) *Mesh {
	w := newWelder()

	type edgeUse struct {
		edge  curves.Edge
		count int
		wire  bool
	}
	uses := make(map[curves.Edge]*edgeUse)
	var order []*edgeUse

	use := func(a, b int, wire bool) {
		if a == b {
			return
		}
		key := curves.Edge{min(a, b), max(a, b)}
		u, ok := uses[key]
		if !ok {
			u = &edgeUse{edge: curves.Edge{a, b}}
			uses[key] = u
			order = append(order, u)
		}
		if wire {
			u.wire = true
		} else {
			u.count++
		}
	}

	for i := range solid.Triangles {
		t := solid.Triangles[i]
		var idx [3]int
		for k := range t.Vertices {
			idx[k] = w.weld(toVec3(t.Vertices[k]))
		}

		if idx[0] == idx[1] || idx[1] == idx[2] || idx[0] == idx[2] {
			use(idx[0], idx[1], true)
			use(idx[1], idx[2], true)
			continue
		}
		use(idx[0], idx[1], false)
		use(idx[1], idx[2], false)
		use(idx[2], idx[0], false)
	}

	m := Mesh{Vertices: w.vertices}
	for _, u := range order {
		if u.wire || u.count == 1 {
			m.Edges = append(m.Edges, u.edge)
		}
	}

	return &m
}

func toVec3(v stl.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
