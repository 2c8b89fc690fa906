package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrude-gcode/internal/gcode"
	"extrude-gcode/internal/meshio"
	"extrude-gcode/internal/preview"
)

const twoSquares = `{"polylines": [
	{"points": [[0,0,0.4],[10,0,0.4],[10,10,0.4],[0,10,0.4]], "cyclic": true},
	{"points": [[0,0,0.2],[10,0,0.2],[10,10,0.2],[0,10,0.2]], "cyclic": true}
]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testOptions(input string) *Options {
	return &Options{
		inputPath:     input,
		settings:      gcode.DefaultSettings(),
		mergeDistance: meshio.DefaultMergeDistance,
		previewView:   preview.TopView,
		previewSize:   64,
		heightmapRes:  2,
		quiet:         true,
	}
}

func TestOutputPath(t *testing.T) {
	opt := Options{inputPath: "part.json"}
	assert.Equal(t, "part.json.gcode", opt.OutputPath())

	opt.inputPath = "part.GCODE"
	assert.Equal(t, "part.GCODE", opt.OutputPath())

	opt.outputPath = "-"
	assert.Equal(t, "-", opt.OutputPath())
}

func TestJobWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "squares.json", twoSquares)

	opt := testOptions(input)
	opt.startCodePath = writeFile(t, dir, "start.gcode", "G28\r\nM109 S215\n")
	opt.endCodePath = writeFile(t, dir, "end.gcode", "M84\n")

	job, err := NewJob(opt)
	require.NoError(t, err)
	require.NoError(t, job.WriteOutput(nil))

	b, err := os.ReadFile(input + ".gcode")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")

	assert.Equal(t, []string{"G28", "M109 S215", "G92 E0"}, lines[:3])
	assert.Equal(t, "M84", lines[len(lines)-1])

	// layers are sorted, so the lower square comes first
	assert.Equal(t, "G1 X0.0000 Y0.0000 Z0.2000 F3600", lines[3])
	assert.Equal(t, b, []byte(job.Gcode()))
}

func TestJobWritesToStdout(t *testing.T) {
	dir := t.TempDir()
	opt := testOptions(writeFile(t, dir, "squares.json", twoSquares))
	opt.outputPath = "-"

	job, err := NewJob(opt)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, job.WriteOutput(&buf))
	assert.Equal(t, job.Gcode(), buf.String())

	_, err = os.Stat(opt.inputPath + ".gcode")
	assert.True(t, os.IsNotExist(err))
}

func TestJobMissingStartCode(t *testing.T) {
	dir := t.TempDir()
	opt := testOptions(writeFile(t, dir, "squares.json", twoSquares))
	opt.startCodePath = filepath.Join(dir, "nope.gcode")

	_, err := NewJob(opt)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestJobMissingMeshAttribute(t *testing.T) {
	dir := t.TempDir()
	doc := `{"mesh": {"vertices": [[0,0,0],[1,0,0]], "edges": [[0,1]]}}`
	opt := testOptions(writeFile(t, dir, "wire.json", doc))
	opt.settings.VariableSpeed = true

	_, err := NewJob(opt)
	assert.True(t, errors.Is(err, meshio.ErrMissingAttribute))
	assert.Contains(t, err.Error(), "'Speed'")
}

func TestJobStats(t *testing.T) {
	dir := t.TempDir()
	opt := testOptions(writeFile(t, dir, "squares.json", twoSquares))

	job, err := NewJob(opt)
	require.NoError(t, err)

	stats := job.Stats()
	assert.InDelta(t, 80, stats.PathLength, 1e-9)
	assert.InDelta(t, 0.2, stats.TravelLength, 1e-9)
	assert.Equal(t, 0.4, stats.Max.Z())
}

func TestJobSimplify(t *testing.T) {
	dir := t.TempDir()
	doc := `{"polylines": [{"points": [[0,0,0],[5,0,0],[10,0,0]]}]}`

	opt := testOptions(writeFile(t, dir, "line.json", doc))
	job, err := NewJob(opt)
	require.NoError(t, err)
	assert.Len(t, job.program.Body, 4)

	opt.simplify = true
	job, err = NewJob(opt)
	require.NoError(t, err)
	assert.Len(t, job.program.Body, 3)
}

func TestJobWritesPreviews(t *testing.T) {
	dir := t.TempDir()
	opt := testOptions(writeFile(t, dir, "squares.json", twoSquares))
	opt.previewPath = filepath.Join(dir, "preview.png")
	opt.heightmapPath = filepath.Join(dir, "heightmap.png")

	job, err := NewJob(opt)
	require.NoError(t, err)
	require.NoError(t, job.WritePreviews())

	for _, path := range []string{opt.previewPath, opt.heightmapPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}
