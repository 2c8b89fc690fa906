package gcode

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"extrude-gcode/internal/toolpath"
)

// Stats summarises an emitted program. None of it affects the G-code.
type Stats struct {
	Min mgl64.Vec3
	Max mgl64.Vec3

	// Extruded is the final extruder position, in mm of filament.
	Extruded float64
	// Volume is the extruded filament volume in mm^3.
	Volume float64

	PathLength   float64
	TravelLength float64

	// PrintTime is estimated from move lengths and feed rates, ignoring
	// acceleration.
	PrintTime time.Duration
}

// BoundingBox returns the elementwise minimum and maximum over every point of
// every polyline.
func BoundingBox(tp *toolpath.Toolpath) (mgl64.Vec3, mgl64.Vec3) {
	min := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	for i := range tp.Polylines {
		for _, pt := range tp.Polylines[i].Points {
			for k := 0; k < 3; k++ {
				min[k] = math.Min(min[k], pt.Pos[k])
				max[k] = math.Max(max[k], pt.Pos[k])
			}
		}
	}

	return min, max
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Second)
}

// String renders the report shown to the user after an export.
func (s Stats) String() string {
	report := strings.Builder{}

	report.WriteString("Bounding Box:\n")
	fmt.Fprintf(&report, "\tmin\tX: %.1f\tY: %.1f\tZ: %.1f\n", s.Min.X(), s.Min.Y(), s.Min.Z())
	fmt.Fprintf(&report, "\tmax\tX: %.1f\tY: %.1f\tZ: %.1f\n", s.Max.X(), s.Max.Y(), s.Max.Z())
	fmt.Fprintf(&report, "Extruded Filament: %.2f\n", s.Extruded)
	fmt.Fprintf(&report, "Extruded Volume: %.2f\n", s.Volume)
	fmt.Fprintf(&report, "Printed Path Length: %.2f\n", s.PathLength)
	fmt.Fprintf(&report, "Travel Length: %.2f\n", s.TravelLength)
	fmt.Fprintf(&report, "Print Time Estimate: %v", s.PrintTime)

	return report.String()
}
