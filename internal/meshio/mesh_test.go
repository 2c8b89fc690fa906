package meshio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrude-gcode/internal/curves"
	"extrude-gcode/internal/toolpath"
)

func squareMesh() *Mesh {
	return &Mesh{
		Vertices: []mgl64.Vec3{{0, 0, 1}, {10, 0, 1}, {10, 10, 1}, {0, 10, 1}},
		Edges:    []curves.Edge{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		Attributes: map[string][]float64{
			LayerHeightAttribute: {0.1, 0.2, 0.3, 0.4},
		},
	}
}

func TestMeshMissingAttribute(t *testing.T) {
	m := squareMesh()

	_, err := m.Polylines(ReconstructOptions{VariableSpeed: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAttribute))
	assert.Contains(t, err.Error(), "'Speed'")

	delete(m.Attributes, LayerHeightAttribute)
	_, err = m.Polylines(ReconstructOptions{VariableLayerHeight: true})
	assert.True(t, errors.Is(err, ErrMissingAttribute))
	assert.Contains(t, err.Error(), "'LayerHeight'")
}

func TestMeshAttributeLength(t *testing.T) {
	m := squareMesh()
	m.Attributes[SpeedAttribute] = []float64{1, 2}

	_, err := m.Polylines(ReconstructOptions{VariableSpeed: true})
	assert.True(t, errors.Is(err, toolpath.ErrAttributeLength))
}

func TestMeshPolylinesCarryAttributes(t *testing.T) {
	polylines, err := squareMesh().Polylines(ReconstructOptions{VariableLayerHeight: true})
	require.NoError(t, err)
	require.Len(t, polylines, 1)

	p := polylines[0]
	assert.True(t, p.Cyclic)
	require.Len(t, p.Points, 4)
	assert.Equal(t, toolpath.LayerHeightAttr, p.Attrs())

	want := map[mgl64.Vec3]float64{
		{0, 0, 1}: 0.1, {10, 0, 1}: 0.2, {10, 10, 1}: 0.3, {0, 10, 1}: 0.4,
	}
	for _, pt := range p.Points {
		assert.Equal(t, want[pt.Pos], pt.LayerHeight)
	}
}

func TestMeshPolylinesMergeDistance(t *testing.T) {
	m := &Mesh{
		Vertices: []mgl64.Vec3{{0, 0, 0}, {0.05, 0, 0}, {1, 0, 0}, {5, 5, 0}, {5.01, 5, 0}},
		Edges:    []curves.Edge{{0, 1}, {1, 2}, {3, 4}},
	}

	polylines, err := m.Polylines(ReconstructOptions{MergeDistance: 0.1})
	require.NoError(t, err)
	require.Len(t, polylines, 2)
	assert.Len(t, polylines[0].Points, 2)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, polylines[0].Last())

	// shorter than the merge distance but still two points
	assert.Len(t, polylines[1].Points, 2)

	polylines, err = m.Polylines(ReconstructOptions{})
	require.NoError(t, err)
	assert.Len(t, polylines[0].Points, 3)
}

func TestGeometryToolpath(t *testing.T) {
	open, err := toolpath.NewPolyline([]mgl64.Vec3{{0, 0, 0}, {1, 1, 0}}, false, nil, nil)
	require.NoError(t, err)

	g := Geometry{Polylines: []toolpath.Polyline{open}, Mesh: squareMesh()}
	tp, err := g.Toolpath(ReconstructOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, tp.Len())

	// mesh attributes only flow through when requested
	assert.Equal(t, toolpath.Attr(0), tp.Attrs)
}

func TestLoadUnknownFormat(t *testing.T) {
	_, err := Load("model.obj")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.JSON")
	doc := `{"polylines": [{"points": [[0,0,0],[1,0,0]]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, g.Polylines, 1)
}

func TestWelder(t *testing.T) {
	w := newWelder()
	assert.Equal(t, 0, w.weld(mgl64.Vec3{1, 2, 3}))
	assert.Equal(t, 1, w.weld(mgl64.Vec3{3, 2, 1}))
	assert.Equal(t, 0, w.weld(mgl64.Vec3{1, 2, 3}))
	assert.Len(t, w.vertices, 2)
}

func TestReadJSON(t *testing.T) {
	doc := `{
		"polylines": [
			{"points": [[0,0,0],[10,0,0],[10,10,0],[0,0,0]], "cyclic": true,
			 "speed": [20, 30, 40, 20]}
		],
		"mesh": {
			"vertices": [[0,0,1],[5,0,1],[5,5,1]],
			"edges": [[0,1],[1,2]],
			"attributes": {"Speed": [1, 2, 3]}
		}
	}`

	g, err := ReadJSON(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, g.Polylines, 1)
	assert.True(t, g.Polylines[0].Cyclic)
	assert.Len(t, g.Polylines[0].Points, 3)
	assert.Equal(t, 30.0, g.Polylines[0].Points[1].Speed)

	require.NotNil(t, g.Mesh)
	assert.Equal(t, []curves.Edge{{0, 1}, {1, 2}}, g.Mesh.Edges)
	assert.Equal(t, mgl64.Vec3{5, 5, 1}, g.Mesh.Vertices[2])
	assert.Equal(t, []float64{1, 2, 3}, g.Mesh.Attributes[SpeedAttribute])

	tp, err := g.Toolpath(ReconstructOptions{VariableSpeed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, tp.Len())
	assert.True(t, tp.Attrs.Has(toolpath.SpeedAttr))
}

func TestReadJSONErrors(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"polylines": [`))
	assert.Error(t, err)

	_, err = ReadJSON(strings.NewReader(`{"polylines": [{"points": [[0,0,0],[1,0,0]], "speed": [1]}]}`))
	assert.True(t, errors.Is(err, toolpath.ErrAttributeLength))
	assert.Contains(t, err.Error(), "polyline 0")
}
