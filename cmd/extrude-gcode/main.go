package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	flag "github.com/spf13/pflag"

	"extrude-gcode/internal/gcode"
	"extrude-gcode/internal/logging"
	"extrude-gcode/internal/meshio"
	"extrude-gcode/internal/preview"
)

func die(err error) {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(1)
}

func main() {
	def := gcode.DefaultSettings()

	mode := flag.String("mode", def.Mode.String(), "Set how separate polylines are joined: \"continuous\" moves straight on to the next polyline, \"retraction\" retracts the filament and lifts the nozzle in between.")
	retraction := flag.String("retraction", def.RetractionStyle.String(), "Set the retraction style: \"gcode\" writes explicit extruder moves, \"firmware\" writes G10/G11 and leaves the amounts to the printer.")
	pull := flag.Float64("pull", def.Pull, "Set the filament retraction length in mm.")
	push := flag.Float64("push", def.Push, "Set the filament length pushed back before printing resumes, in mm.")
	zHop := flag.Float64("z-hop", def.ZHop, "Set the height to lift the nozzle during retracted travel moves, in mm.")

	speedUnit := flag.String("speed-unit", "feed", "Set whether speeds are given as feed rates in mm/min (\"feed\", using --feed*) or as speeds in mm/s (\"speed\", using --speed*).")
	feed := flag.Float64("feed", def.PrintFeed, "Set the printing feed rate in mm/min.")
	feedVertical := flag.Float64("feed-vertical", def.VerticalFeed, "Set the feed rate for Z lift moves in mm/min.")
	feedHorizontal := flag.Float64("feed-horizontal", def.HorizontalFeed, "Set the feed rate for travel moves in mm/min.")
	speed := flag.Float64("speed", def.PrintFeed/60, "Set the printing speed in mm/s.")
	speedVertical := flag.Float64("speed-vertical", def.VerticalFeed/60, "Set the speed for Z lift moves in mm/s.")
	speedHorizontal := flag.Float64("speed-horizontal", def.HorizontalFeed/60, "Set the speed for travel moves in mm/s.")
	maxVel := flag.Float64("max-vel", 0, "Max. velocity in mm/min for print time estimation. 0 means the programmed feed rates are reached.")

	nozzle := flag.Float64("nozzle", def.NozzleDiameter, "Set the nozzle diameter in mm.")
	filament := flag.Float64("filament", def.FilamentDiameter, "Set the filament diameter in mm.")
	layer := flag.Float64("layer-height", def.LayerHeight, "Set the layer height in mm.")
	flow := flag.Float64("flow", def.FlowMultiplier, "Set the flow multiplier applied to every extrusion.")

	sortLayers := flag.Bool("sort-layers", def.SortLayers, "Sort polylines by their mean Z, lowest first.")
	sortPoints := flag.Bool("sort-points", def.SortPoints, "Choose the start point of each closed polyline, and the direction of each open one, to shorten travel moves.")
	variableLayer := flag.Bool("variable-layer-height", false, "Take the layer height from each point's layer height value instead of --layer-height. Mesh input must carry a \"LayerHeight\" attribute.")
	variableSpeed := flag.Bool("variable-speed", false, "Take the printing feed rate from each point's speed value instead of --feed. Mesh input must carry a \"Speed\" attribute.")

	mergeDistance := flag.Float64("merge-distance", meshio.DefaultMergeDistance, "Merge consecutive points of reconstructed mesh polylines closer than this, in mm. 0 keeps every point.")
	simplify := flag.Bool("simplify", false, "Remove points lying on a straight line between their neighbours.")

	startCode := flag.String("start-code", "", "Read G-code to write before the print from this file.")
	endCode := flag.String("end-code", "", "Read G-code to write after the print from this file.")
	output := flag.StringP("output", "o", "", "Write G-code to this file instead of the input path with \".gcode\" appended. \"-\" writes to stdout.")

	previewPath := flag.String("preview", "", "Write a line drawing of the nozzle path to this PNG file.")
	previewView := flag.String("preview-view", "iso", "Set the preview projection: \"top\" or \"iso\".")
	previewSize := flag.Int("preview-size", preview.DefaultOptions().Size, "Set the width and height of the preview in px.")
	heightmapPath := flag.String("heightmap", "", "Write a top-down heightmap of the printed path to this PNG file.")
	heightmapRes := flag.Float64("heightmap-resolution", 10, "Set the heightmap resolution in px/mm.")

	quiet := flag.BoolP("quiet", "q", false, "Suppress output of statistics, progress, and warnings.")
	verbose := flag.BoolP("verbose", "v", false, "Log debugging output.")

	cpuProfile := flag.String("cpuprofile", "", "Write CPU profile to file.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: extrude-gcode [options] GEOMETRYFILE\n\n")
		fmt.Fprintf(os.Stderr, "GEOMETRYFILE is a .json, .stl or .dxf file holding polylines or a mesh of edges.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if !*quiet {
		level := slog.LevelWarn
		if *verbose {
			level = slog.LevelDebug
		}
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			die(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}

	s := def
	var err error
	if s.Mode, err = gcode.ParseMode(*mode); err != nil {
		die(err)
	}
	if s.RetractionStyle, err = gcode.ParseRetractionStyle(*retraction); err != nil {
		die(err)
	}
	unit, err := gcode.ParseSpeedUnit(*speedUnit)
	if err != nil {
		die(err)
	}
	if unit == gcode.MmPerSecond {
		s.PrintFeed = gcode.FeedRate(unit, *speed)
		s.VerticalFeed = gcode.FeedRate(unit, *speedVertical)
		s.HorizontalFeed = gcode.FeedRate(unit, *speedHorizontal)
	} else {
		s.PrintFeed = *feed
		s.VerticalFeed = *feedVertical
		s.HorizontalFeed = *feedHorizontal
	}

	s.Pull = *pull
	s.Push = *push
	s.ZHop = *zHop
	s.MaxVelocity = *maxVel
	s.NozzleDiameter = *nozzle
	s.FilamentDiameter = *filament
	s.LayerHeight = *layer
	s.FlowMultiplier = *flow
	s.SortLayers = *sortLayers
	s.SortPoints = *sortPoints
	s.VariableLayerHeight = *variableLayer
	s.VariableSpeed = *variableSpeed

	view, err := preview.ParseView(*previewView)
	if err != nil {
		die(err)
	}
	if *heightmapPath != "" && !(*heightmapRes > 0) {
		die(fmt.Errorf("heightmap resolution must be positive, got %g", *heightmapRes))
	}

	opt := Options{
		inputPath:  args[0],
		outputPath: *output,

		startCodePath: *startCode,
		endCodePath:   *endCode,

		previewPath:   *previewPath,
		heightmapPath: *heightmapPath,
		previewView:   view,
		previewSize:   *previewSize,
		heightmapRes:  *heightmapRes,

		settings: s,

		mergeDistance: *mergeDistance,
		simplify:      *simplify,

		quiet: *quiet,
	}

	job, err := NewJob(&opt)
	if err != nil {
		die(err)
	}

	if err := job.WriteOutput(os.Stdout); err != nil {
		die(err)
	}
	if err := job.WritePreviews(); err != nil {
		die(err)
	}

	if !*quiet {
		fmt.Fprintf(os.Stderr, "%v\n", job.Stats())
	}
}
