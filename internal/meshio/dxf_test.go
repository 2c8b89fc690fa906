package meshio

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrude-gcode/internal/curves"
)

func TestAssemble(t *testing.T) {
	runs := []pointRun{
		{pts: []mgl64.Vec3{{0, 0, 0}, {5, 0, 0}, {5, 5, 0}, {0, 0, 0}}},
		{pts: []mgl64.Vec3{{0, 0, 1}, {5, 0, 1}}},
	}
	lines := [][2]mgl64.Vec3{
		{{0, 0, 2}, {1, 0, 2}},
		{{2, 0, 2}, {1, 0, 2}},
	}

	g, err := assemble(runs, lines)
	require.NoError(t, err)

	require.Len(t, g.Polylines, 2)
	assert.True(t, g.Polylines[0].Cyclic)
	assert.Len(t, g.Polylines[0].Points, 3)
	assert.False(t, g.Polylines[1].Cyclic)

	require.NotNil(t, g.Mesh)
	assert.Len(t, g.Mesh.Vertices, 3)
	assert.Equal(t, []curves.Edge{{0, 1}, {2, 1}}, g.Mesh.Edges)

	tp, err := g.Toolpath(ReconstructOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, tp.Len())
}

func TestAssembleClosedFlag(t *testing.T) {
	square := []mgl64.Vec3{{0, 0, 0}, {5, 0, 0}, {5, 5, 0}, {0, 5, 0}}

	g, err := assemble([]pointRun{
		{pts: square, closed: true},
		{pts: square},
		{pts: square[:2], closed: true},
	}, nil)
	require.NoError(t, err)

	assert.True(t, g.Polylines[0].Cyclic)
	assert.Len(t, g.Polylines[0].Points, 4)
	assert.False(t, g.Polylines[1].Cyclic)
	assert.False(t, g.Polylines[2].Cyclic, "two points cannot make a ring")

	// the closing side is printed
	tp, err := g.Toolpath(ReconstructOptions{})
	require.NoError(t, err)
	tp.Close()
	assert.InDelta(t, 20, tp.Polylines[0].PathLength(), 1e-9)
	assert.InDelta(t, 15, tp.Polylines[1].PathLength(), 1e-9)
}

func TestAssembleWithoutLines(t *testing.T) {
	g, err := assemble([]pointRun{{pts: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}}}, nil)
	require.NoError(t, err)
	assert.Nil(t, g.Mesh)
}

func TestCircleRing(t *testing.T) {
	pts := circleRing(mgl64.Vec3{10, 10, 0.3}, 5, 16)
	require.Len(t, pts, 16)
	for _, p := range pts {
		assert.InDelta(t, 5, p.Sub(mgl64.Vec3{10, 10, 0.3}).Len(), 1e-9)
		assert.Equal(t, 0.3, p.Z())
	}

	g, err := assemble([]pointRun{{pts: pts, closed: true}}, nil)
	require.NoError(t, err)
	assert.True(t, g.Polylines[0].Cyclic)
	assert.Len(t, g.Polylines[0].Points, 16)
}

// closedShapes holds a POLYLINE and an LWPOLYLINE, both flagged closed
// without repeating their first vertex.
const closedShapes = `  0
SECTION
  2
ENTITIES
  0
POLYLINE
  5
10
  8
0
 66
1
 70
9
  0
VERTEX
  5
11
  8
0
 10
0.0
 20
0.0
 30
1.0
  0
VERTEX
  5
12
  8
0
 10
10.0
 20
0.0
 30
1.0
  0
VERTEX
  5
13
  8
0
 10
10.0
 20
10.0
 30
1.0
  0
SEQEND
  5
14
  8
0
  0
LWPOLYLINE
  5
15
  8
0
 90
3
 70
1
 38
2.0
 10
0.0
 20
0.0
 10
4.0
 20
0.0
 10
4.0
 20
3.0
  0
ENDSEC
  0
EOF
`

func TestReadDXFClosedPolylines(t *testing.T) {
	g, err := ReadDXF(strings.NewReader(closedShapes))
	require.NoError(t, err)
	require.Len(t, g.Polylines, 2)

	tri := g.Polylines[0]
	assert.True(t, tri.Cyclic)
	assert.Len(t, tri.Points, 3)
	assert.Equal(t, mgl64.Vec3{10, 10, 1}, tri.Points[2].Pos)

	lw := g.Polylines[1]
	assert.True(t, lw.Cyclic)
	assert.Equal(t, mgl64.Vec3{4, 3, 2}, lw.Points[2].Pos)

	tp, err := g.Toolpath(ReconstructOptions{})
	require.NoError(t, err)
	tp.Close()
	assert.InDelta(t, 12, tp.Polylines[1].PathLength(), 1e-9)
}
