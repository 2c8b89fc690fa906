package main

import (
	"strings"

	"extrude-gcode/internal/gcode"
	"extrude-gcode/internal/meshio"
	"extrude-gcode/internal/preview"
)

type Options struct {
	inputPath  string
	outputPath string

	startCodePath string
	endCodePath   string

	previewPath   string
	heightmapPath string
	previewView   preview.View
	previewSize   int
	heightmapRes  float64

	settings gcode.Settings

	mergeDistance float64
	simplify      bool

	quiet bool
}

// OutputPath is where the G-code goes: the explicit output path if one was
// given, otherwise the input path with ".gcode" appended. "-" means stdout.
func (opt *Options) OutputPath() string {
	if opt.outputPath != "" {
		return opt.outputPath
	}
	if strings.HasSuffix(strings.ToLower(opt.inputPath), ".gcode") {
		return opt.inputPath
	}
	return opt.inputPath + ".gcode"
}

func (opt *Options) reconstruct() meshio.ReconstructOptions {
	return meshio.ReconstructOptions{
		VariableLayerHeight: opt.settings.VariableLayerHeight,
		VariableSpeed:       opt.settings.VariableSpeed,
		MergeDistance:       opt.mergeDistance,
	}
}
