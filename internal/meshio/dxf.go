package meshio

import (
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rpaloschi/dxf-go/core"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"

	"extrude-gcode/internal/curves"
	"extrude-gcode/internal/toolpath"
)

// circleSegments is the number of chords a DXF circle is flattened into.
const circleSegments = 64

// ReadDXF reads POLYLINE and LWPOLYLINE entities as ordered polylines,
// CIRCLE entities as flattened rings and LINE entities as an edge soup to be
// chained. Other entities are ignored, and so are LWPOLYLINE bulges.
func ReadDXF(r io.Reader) (*Geometry, error) {
	doc, err := document.DxfDocumentFromStream(r)
	if err != nil {
		return nil, err
	}

	var runs []pointRun
	var lines [][2]mgl64.Vec3
	for _, entity := range doc.Entities.Entities {
		if polyline, ok := entity.(*entities.Polyline); ok {
			run := pointRun{closed: polyline.Closed}
			for _, v := range polyline.Vertices {
				run.pts = append(run.pts, fromDXF(v.Location))
			}
			runs = append(runs, run)
		} else if lw, ok := entity.(*entities.LWPolyline); ok {
			run := pointRun{closed: lw.Closed}
			for _, v := range lw.Points {
				run.pts = append(run.pts, mgl64.Vec3{v.Point.X, v.Point.Y, lw.Elevation})
			}
			runs = append(runs, run)
		} else if line, ok := entity.(*entities.Line); ok {
			lines = append(lines, [2]mgl64.Vec3{fromDXF(line.Start), fromDXF(line.End)})
		} else if circle, ok := entity.(*entities.Circle); ok {
			runs = append(runs, pointRun{
				pts:    circleRing(fromDXF(circle.Center), circle.Radius, circleSegments),
				closed: true,
			})
		}
	}

	return assemble(runs, lines)
}

func ReadDXFFile(path string) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadDXF(f)
}

func fromDXF(p core.Point) mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// circleRing flattens a circle parallel to the XY plane into a ring of
// segments points.
func circleRing(center mgl64.Vec3, radius float64, segments int) []mgl64.Vec3 {
	pts := make([]mgl64.Vec3, 0, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		pts = append(pts, center.Add(mgl64.Vec3{radius * math.Cos(a), radius * math.Sin(a), 0}))
	}
	return pts
}

// pointRun is the vertex list of one DXF entity. closed is the entity's own
// closed flag, which DXF writers set without repeating the first vertex.
type pointRun struct {
	pts    []mgl64.Vec3
	closed bool
}

// assemble turns point runs into polylines, treating a run that is flagged
// closed or ends where it started as a ring, and welds loose line segments
// into a mesh.
func assemble(runs []pointRun, lines [][2]mgl64.Vec3) (*Geometry, error) {
	g := Geometry{}

	for _, run := range runs {
		pts := run.pts
		repeated := len(pts) > 2 && pts[0].ApproxEqual(pts[len(pts)-1])
		cyclic := len(pts) > 2 && (run.closed || repeated)
		p, err := toolpath.NewPolyline(pts, cyclic, nil, nil)
		if err != nil {
			return nil, err
		}
		g.Polylines = append(g.Polylines, p)
	}

	if len(lines) > 0 {
		w := newWelder()
		m := Mesh{}
		for _, l := range lines {
			m.Edges = append(m.Edges, curves.Edge{w.weld(l[0]), w.weld(l[1])})
		}
		m.Vertices = w.vertices
		g.Mesh = &m
	}

	return &g, nil
}
