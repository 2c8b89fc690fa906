package main

import (
	"fmt"
	"io"
	"os"

	"extrude-gcode/internal/gcode"
	"extrude-gcode/internal/logging"
	"extrude-gcode/internal/meshio"
	"extrude-gcode/internal/preview"
	"extrude-gcode/internal/toolpath"
)

type Job struct {
	options  *Options
	toolpath *toolpath.Toolpath
	program  *gcode.Program
}

func NewJob(opt *Options) (*Job, error) {
	geom, err := meshio.Load(opt.inputPath)
	if err != nil {
		return nil, err
	}

	return newJobFromGeometry(opt, geom)
}

func newJobFromGeometry(opt *Options, geom *meshio.Geometry) (*Job, error) {
	j := Job{}
	j.options = opt

	tp, err := geom.Toolpath(opt.reconstruct())
	if err != nil {
		return nil, err
	}
	if opt.simplify {
		tp = tp.Simplified()
	}
	tp.Reorder(opt.settings.SortLayers, opt.settings.SortPoints)
	j.toolpath = tp

	if !opt.quiet {
		fmt.Fprintf(os.Stderr, "%d polylines, %.1f mm to print, %s mode.\n", tp.Len(), tp.PathLength(), opt.settings.Mode)
	}

	j.program, err = gcode.Emit(tp, opt.settings)
	if err != nil {
		return nil, err
	}

	j.program.Prologue, err = readTextBlock(opt.startCodePath)
	if err != nil {
		return nil, err
	}
	j.program.Epilogue, err = readTextBlock(opt.endCodePath)
	if err != nil {
		return nil, err
	}

	return &j, nil
}

// readTextBlock returns the lines of the file at path, or nothing if no path
// was given.
func readTextBlock(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return gcode.TextLines(string(b)), nil
}

func (j *Job) Gcode() string {
	return j.program.Gcode()
}

func (j *Job) Stats() gcode.Stats {
	return j.program.Stats
}

// WriteOutput writes the program to the output path, or to w if the output
// path is "-".
func (j *Job) WriteOutput(w io.Writer) error {
	path := j.options.OutputPath()
	if path == "-" {
		_, err := j.program.WriteTo(w)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := j.program.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logging.Logger().Debug("wrote gcode", "path", path, "lines", len(j.program.Body))
	if !j.options.quiet {
		fmt.Fprintf(os.Stderr, "G-code written to %s\n", path)
	}
	return nil
}

// WritePreviews renders whichever previews were asked for.
func (j *Job) WritePreviews() error {
	opt := j.options

	if opt.previewPath != "" {
		popt := preview.DefaultOptions()
		popt.View = opt.previewView
		if opt.previewSize > 0 {
			popt.Size = opt.previewSize
		}
		if err := preview.SavePNG(opt.previewPath, &j.program.Trace, popt); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
	}

	if opt.heightmapPath != "" {
		hm := preview.NewHeightmap(&j.program.Trace, opt.heightmapRes)
		if err := hm.WritePNG(opt.heightmapPath); err != nil {
			return fmt.Errorf("heightmap: %w", err)
		}
		if !opt.quiet {
			fmt.Fprintf(os.Stderr, "%dx%d px heightmap at %g px/mm.\n", hm.Width, hm.Height, opt.heightmapRes)
		}
	}

	return nil
}
