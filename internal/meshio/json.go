package meshio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"extrude-gcode/internal/curves"
	"extrude-gcode/internal/toolpath"
)

type polylineDoc struct {
	Points      [][3]float64 `json:"points"`
	Cyclic      bool         `json:"cyclic"`
	LayerHeight []float64    `json:"layer_height,omitempty"`
	Speed       []float64    `json:"speed,omitempty"`
}

type meshDoc struct {
	Vertices   [][3]float64         `json:"vertices"`
	Edges      [][2]int             `json:"edges"`
	Attributes map[string][]float64 `json:"attributes,omitempty"`
}

type geometryDoc struct {
	Polylines []polylineDoc `json:"polylines,omitempty"`
	Mesh      *meshDoc      `json:"mesh,omitempty"`
}

// ReadJSON decodes geometry of the form
//
//	{"polylines": [{"points": [[x,y,z], ...], "cyclic": true,
//	                "layer_height": [...], "speed": [...]}],
//	 "mesh": {"vertices": [[x,y,z], ...], "edges": [[0,1], ...],
//	          "attributes": {"LayerHeight": [...], "Speed": [...]}}}
//
// Either key may be omitted.
func ReadJSON(r io.Reader) (*Geometry, error) {
	var doc geometryDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	g := Geometry{}
	for i, pd := range doc.Polylines {
		pts := make([]mgl64.Vec3, len(pd.Points))
		for k := range pd.Points {
			pts[k] = pd.Points[k]
		}
		p, err := toolpath.NewPolyline(pts, pd.Cyclic, pd.LayerHeight, pd.Speed)
		if err != nil {
			return nil, fmt.Errorf("polyline %d: %w", i, err)
		}
		g.Polylines = append(g.Polylines, p)
	}

	if doc.Mesh != nil {
		m := Mesh{
			Vertices:   make([]mgl64.Vec3, len(doc.Mesh.Vertices)),
			Edges:      make([]curves.Edge, len(doc.Mesh.Edges)),
			Attributes: doc.Mesh.Attributes,
		}
		for k := range doc.Mesh.Vertices {
			m.Vertices[k] = doc.Mesh.Vertices[k]
		}
		for k := range doc.Mesh.Edges {
			m.Edges[k] = doc.Mesh.Edges[k]
		}
		g.Mesh = &m
	}

	return &g, nil
}

func ReadJSONFile(path string) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadJSON(f)
}
