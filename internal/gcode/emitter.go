// Package gcode turns an ordered toolpath into extrusion G-code and reports
// statistics about the resulting print.
package gcode

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"extrude-gcode/internal/logging"
	"extrude-gcode/internal/toolpath"
)

var ErrEmptyToolpath = errors.New("toolpath has no polylines")

// Trace records every position the nozzle visits, split into printed edges
// and travel edges. It is only used for statistics and previews.
type Trace struct {
	Vertices []mgl64.Vec3
	Printed  [][2]int
	Travel   [][2]int
}

func (t *Trace) add(v mgl64.Vec3) int {
	t.Vertices = append(t.Vertices, v)
	return len(t.Vertices) - 1
}

func (t *Trace) printTo(v mgl64.Vec3) {
	i := t.add(v)
	t.Printed = append(t.Printed, [2]int{i - 1, i})
}

func (t *Trace) travelTo(v mgl64.Vec3) {
	i := t.add(v)
	t.Travel = append(t.Travel, [2]int{i - 1, i})
}

// emitter is the state of a single emission pass.
type emitter struct {
	settings Settings
	mode     Mode

	useLayerHeight bool
	useSpeed       bool

	lines []string
	trace Trace

	e            float64
	maxz         float64
	feed         float64
	pathLength   float64
	travelLength float64
	seconds      float64
}

// Emit walks tp in order and produces the G-code body together with print
// statistics. tp is not modified. Retraction mode is ignored when tp has a
// single polyline.
func Emit(tp *toolpath.Toolpath, s Settings) (*Program, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if tp.Len() == 0 {
		return nil, ErrEmptyToolpath
	}
	if s.VariableLayerHeight && !tp.Attrs.Has(toolpath.LayerHeightAttr) {
		return nil, fmt.Errorf("variable layer height requested: %w", toolpath.ErrMissingAttributes)
	}
	if s.VariableSpeed && !tp.Attrs.Has(toolpath.SpeedAttr) {
		return nil, fmt.Errorf("variable speed requested: %w", toolpath.ErrMissingAttributes)
	}

	em := emitter{
		settings:       s,
		mode:           s.Mode,
		useLayerHeight: s.VariableLayerHeight,
		useSpeed:       s.VariableSpeed,
		feed:           s.PrintFeed,
	}
	if tp.Len() == 1 && em.mode == Retraction {
		logging.Logger().Debug("single polyline, using continuous mode")
		em.mode = Continuous
	}

	em.run(tp)

	min, max := BoundingBox(tp)
	stats := Stats{
		Min:          min,
		Max:          max,
		Extruded:     em.e,
		Volume:       em.e * filamentArea(s.FilamentDiameter),
		PathLength:   em.pathLength,
		TravelLength: em.travelLength,
		PrintTime:    secondsToDuration(em.seconds),
	}
	logging.Logger().Info("emitted toolpath",
		"polylines", tp.Len(), "lines", len(em.lines), "mode", em.mode.String(),
		"extruded", stats.Extruded, "path_length", stats.PathLength)

	return &Program{
		Body:  em.lines,
		Stats: stats,
		Trace: em.trace,
	}, nil
}

func (em *emitter) run(tp *toolpath.Toolpath) {
	n := tp.Len()

	for i := range tp.Polylines {
		p := &tp.Polylines[i]

		for j := range p.Points {
			pt := p.Points[j]

			layer := em.settings.LayerHeight
			if em.useLayerHeight {
				layer = pt.LayerHeight
			}
			if em.useSpeed {
				em.feed = pt.Speed
			}

			em.maxz = math.Max(em.maxz, pt.Pos.Z())

			switch {
			case i == 0 && j == 0:
				em.start(pt.Pos)
			case j == 0 && em.mode == Retraction:
				em.travelTo(pt.Pos)
			default:
				em.extrudeTo(p, j, layer)
			}
		}

		if em.mode == Retraction && i < n-1 {
			em.retractFrom(p.Last())
		}
	}
}

func (em *emitter) emit(format string, args ...interface{}) {
	em.lines = append(em.lines, fmt.Sprintf(format, args...))
}

// start resets the extruder and moves to the first point without extruding.
func (em *emitter) start(v mgl64.Vec3) {
	em.e = 0
	em.emit("G92 E0")
	em.emit("G1 X%.4f Y%.4f Z%.4f F%.0f", v.X(), v.Y(), v.Z(), em.feed)
	em.trace.add(v)
}

// travelTo moves over to v at the safe height, drops down onto it and
// re-engages the material.
func (em *emitter) travelTo(v mgl64.Vec3) {
	s := em.settings
	hop := em.maxz + s.ZHop
	above := mgl64.Vec3{v.X(), v.Y(), hop}

	em.emit("G1 X%.4f Y%.4f Z%.4f F%.0f", v.X(), v.Y(), hop, s.HorizontalFeed)
	em.emit("G1 X%.4f Y%.4f Z%.4f F%.0f", v.X(), v.Y(), v.Z(), s.VerticalFeed)
	em.emit("G1 F%.0f", em.feed)
	if s.RetractionStyle == GcodeRetraction {
		em.e += s.Push
		em.emit("G1 E%.4f", em.e)
	} else {
		em.emit("G11")
	}

	across := above.Sub(em.lastVertex()).Len()
	down := hop - v.Z()
	em.travelLength += across + down
	em.seconds += em.moveTime(across, s.HorizontalFeed) + em.moveTime(down, s.VerticalFeed)

	em.trace.travelTo(above)
	em.trace.travelTo(v)
}

// extrudeTo moves to point j of p, extruding in proportion to the distance
// covered. The first point of a polyline in continuous mode is reached
// without extruding.
func (em *emitter) extrudeTo(p *toolpath.Polyline, j int, layer float64) {
	s := em.settings
	v := p.Points[j].Pos

	from := em.lastVertex()
	if j > 0 {
		from = p.Points[j-1].Pos
	}
	dist := v.Sub(from).Len()

	flow := 0.0
	if j > 0 {
		flow = FlowRatio(layer, s.NozzleDiameter, s.FilamentDiameter)
	}
	em.e += dist * s.FlowMultiplier * flow

	if em.useSpeed {
		em.emit("G1 X%.4f Y%.4f Z%.4f E%.4f F%.1f", v.X(), v.Y(), v.Z(), em.e, em.feed)
	} else {
		em.emit("G1 X%.4f Y%.4f Z%.4f E%.4f", v.X(), v.Y(), v.Z(), em.e)
	}
	em.seconds += em.moveTime(dist, em.feed)

	if j == 0 {
		em.travelLength += dist
		em.trace.travelTo(v)
		return
	}
	em.pathLength += dist
	em.trace.printTo(v)
}

// retractFrom withdraws the material at the end of a polyline and lifts the
// nozzle clear of everything printed so far.
func (em *emitter) retractFrom(v mgl64.Vec3) {
	s := em.settings
	hop := em.maxz + s.ZHop

	if s.RetractionStyle == GcodeRetraction {
		em.e -= s.Pull
		em.emit("G0 E%.4f", em.e)
	} else {
		em.emit("G10")
	}
	em.emit("G1 X%.4f Y%.4f Z%.4f F%.0f", v.X(), v.Y(), hop, s.VerticalFeed)

	up := hop - v.Z()
	em.travelLength += up
	em.seconds += em.moveTime(up, s.VerticalFeed)
	em.trace.travelTo(mgl64.Vec3{v.X(), v.Y(), hop})
}

func (em *emitter) lastVertex() mgl64.Vec3 {
	return em.trace.Vertices[len(em.trace.Vertices)-1]
}

// moveTime estimates the seconds taken to cover dist at feed mm/min.
func (em *emitter) moveTime(dist, feed float64) float64 {
	if em.settings.MaxVelocity > 0 && feed > em.settings.MaxVelocity {
		feed = em.settings.MaxVelocity
	}
	if !(feed > 0) {
		return 0
	}
	return 60 * math.Abs(dist) / feed
}

// depositArea is the cross section of an extruded bead: a rectangle of the
// nozzle width with half circles on both sides.
func depositArea(layer, nozzle float64) float64 {
	return layer*nozzle + math.Pi*(layer/2)*(layer/2)
}

func filamentArea(diameter float64) float64 {
	return math.Pi * (diameter / 2) * (diameter / 2)
}

// FlowRatio is the length of filament consumed per unit of path at the given
// layer height.
func FlowRatio(layer, nozzle, filament float64) float64 {
	return depositArea(layer, nozzle) / filamentArea(filament)
}
