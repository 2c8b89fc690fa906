package gcode

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Mode selects how separate polylines are joined.
type Mode int

const (
	// Continuous moves straight from the end of one polyline to the start of
	// the next without lifting or retracting.
	Continuous Mode = iota
	// Retraction pulls material back and lifts the nozzle between polylines.
	Retraction
)

func (m Mode) String() string {
	if m == Retraction {
		return "retraction"
	}
	return "continuous"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "continuous", "cont":
		return Continuous, nil
	case "retraction", "retr":
		return Retraction, nil
	}
	return Continuous, fmt.Errorf("unrecognised path mode: %s", s)
}

// RetractionStyle selects whether retraction is written as explicit extruder
// moves or left to the firmware (G10/G11).
type RetractionStyle int

const (
	GcodeRetraction RetractionStyle = iota
	FirmwareRetraction
)

func (r RetractionStyle) String() string {
	if r == FirmwareRetraction {
		return "firmware"
	}
	return "gcode"
}

func ParseRetractionStyle(s string) (RetractionStyle, error) {
	switch strings.ToLower(s) {
	case "gcode":
		return GcodeRetraction, nil
	case "firmware":
		return FirmwareRetraction, nil
	}
	return GcodeRetraction, fmt.Errorf("unrecognised retraction style: %s", s)
}

// SpeedUnit is the unit speeds are entered in. Feed rates in the output are
// always mm/min.
type SpeedUnit int

const (
	MmPerSecond SpeedUnit = iota
	MmPerMinute
)

func ParseSpeedUnit(s string) (SpeedUnit, error) {
	switch strings.ToLower(s) {
	case "speed", "mm/s":
		return MmPerSecond, nil
	case "feed", "mm/min":
		return MmPerMinute, nil
	}
	return MmPerSecond, fmt.Errorf("unrecognised speed unit: %s", s)
}

// FeedRate converts a speed in unit to a feed rate in mm/min.
func FeedRate(unit SpeedUnit, v float64) float64 {
	if unit == MmPerSecond {
		return v * 60
	}
	return v
}

// Settings is everything the emitter needs to turn a toolpath into G-code.
// Lengths are in mm and feed rates in mm/min.
type Settings struct {
	NozzleDiameter   float64
	FilamentDiameter float64
	LayerHeight      float64
	FlowMultiplier   float64

	PrintFeed      float64
	VerticalFeed   float64
	HorizontalFeed float64

	ZHop float64
	Pull float64
	Push float64

	RetractionStyle RetractionStyle
	Mode            Mode

	SortLayers bool
	SortPoints bool

	VariableLayerHeight bool
	VariableSpeed       bool

	// MaxVelocity caps feed rates in the print time estimate. 0 means no cap.
	MaxVelocity float64
}

func DefaultSettings() Settings {
	return Settings{
		NozzleDiameter:   0.4,
		FilamentDiameter: 1.75,
		LayerHeight:      0.1,
		FlowMultiplier:   1,

		PrintFeed:      3600,
		VerticalFeed:   3600,
		HorizontalFeed: 7200,

		ZHop: 2,
		Pull: 5,
		Push: 5,

		RetractionStyle: GcodeRetraction,
		Mode:            Continuous,

		SortLayers: true,
	}
}

type namedValue struct {
	name string
	v    float64
}

// Validate reports the first setting that cannot produce sensible output.
func (s Settings) Validate() error {
	positive := []namedValue{
		{"nozzle diameter", s.NozzleDiameter},
		{"filament diameter", s.FilamentDiameter},
		{"print feed", s.PrintFeed},
	}
	if !s.VariableLayerHeight {
		positive = append(positive, namedValue{"layer height", s.LayerHeight})
	}
	if s.Mode == Retraction {
		positive = append(positive,
			namedValue{"vertical feed", s.VerticalFeed},
			namedValue{"horizontal feed", s.HorizontalFeed})
	}
	for _, f := range positive {
		if !(f.v > 0) {
			return fmt.Errorf("%s must be positive, got %g: %w", f.name, f.v, ErrInvalidSettings)
		}
	}

	nonNegative := []namedValue{
		{"flow multiplier", s.FlowMultiplier},
		{"z hop", s.ZHop},
		{"pull", s.Pull},
		{"push", s.Push},
		{"max velocity", s.MaxVelocity},
	}
	for _, f := range nonNegative {
		if !(f.v >= 0) {
			return fmt.Errorf("%s must not be negative, got %g: %w", f.name, f.v, ErrInvalidSettings)
		}
	}

	return nil
}
