// Package preview draws pictures of an emitted program: a line drawing of
// the nozzle path and a top-down heightmap of what was printed.
package preview

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"extrude-gcode/internal/gcode"
)

var ErrEmptyTrace = errors.New("nothing to draw")

type View int

const (
	TopView View = iota
	IsoView
)

func (v View) String() string {
	if v == IsoView {
		return "iso"
	}
	return "top"
}

func ParseView(s string) (View, error) {
	switch strings.ToLower(s) {
	case "top":
		return TopView, nil
	case "iso":
		return IsoView, nil
	}
	return 0, fmt.Errorf("unrecognised view: %s", s)
}

type Options struct {
	Size      int
	View      View
	LineWidth float64

	// Travel also draws travel moves, dashed.
	Travel bool
}

func DefaultOptions() Options {
	return Options{
		Size:      800,
		View:      IsoView,
		LineWidth: 1.5,
		Travel:    true,
	}
}

func (v View) transform() mgl64.Mat4 {
	if v == IsoView {
		return mgl64.HomogRotate3DX(-60 * (math.Pi / 180)).Mul4(
			mgl64.HomogRotate3DZ(-45 * (math.Pi / 180)))
	}
	return mgl64.Ident4()
}

// layerColor runs from blue at the bottom of the print to red at the top.
func layerColor(z, minZ, maxZ float64) colorful.Color {
	t := 0.0
	if maxZ > minZ {
		t = (z - minZ) / (maxZ - minZ)
	}
	return colorful.Hsv(240*(1-t), 0.9, 0.9)
}

// Render draws the trace to a square image. Printed edges are coloured by the
// height of their midpoint.
func Render(tr *gcode.Trace, opt Options) (image.Image, error) {
	if len(tr.Printed) == 0 {
		return nil, ErrEmptyTrace
	}

	view := opt.View.transform()
	projected := make([]mgl64.Vec3, len(tr.Vertices))
	for i, v := range tr.Vertices {
		projected[i] = mgl64.TransformCoordinate(v, view)
	}

	min, max := printedBounds(tr)
	lo := mgl64.Vec2{math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec2{math.Inf(-1), math.Inf(-1)}
	for _, p := range projected {
		for k := 0; k < 2; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}

	size := float64(opt.Size)
	margin := size / 20
	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	scale := 1.0
	if span > 0 {
		scale = (size - 2*margin) / span
	}
	offset := mgl64.Vec2{
		(size - (hi[0]-lo[0])*scale) / 2,
		(size - (hi[1]-lo[1])*scale) / 2,
	}
	px := func(i int) (float64, float64) {
		p := projected[i]
		return offset[0] + (p[0]-lo[0])*scale, size - (offset[1] + (p[1]-lo[1])*scale)
	}

	dc := gg.NewContext(opt.Size, opt.Size)
	dc.SetColor(colornames.White)
	dc.Clear()
	dc.SetLineWidth(opt.LineWidth)

	if opt.Travel {
		dc.SetColor(colornames.Lightgray)
		dc.SetDash(4, 4)
		for _, e := range tr.Travel {
			x1, y1 := px(e[0])
			x2, y2 := px(e[1])
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
		}
		dc.SetDash()
	}

	for _, e := range tr.Printed {
		z := (tr.Vertices[e[0]].Z() + tr.Vertices[e[1]].Z()) / 2
		dc.SetColor(layerColor(z, min.Z(), max.Z()))
		x1, y1 := px(e[0])
		x2, y2 := px(e[1])
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	return dc.Image(), nil
}

func SavePNG(path string, tr *gcode.Trace, opt Options) error {
	img, err := Render(tr, opt)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

func EncodePNG(w io.Writer, tr *gcode.Trace, opt Options) error {
	img, err := Render(tr, opt)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}
