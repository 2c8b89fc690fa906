package preview

import (
	"image"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"extrude-gcode/internal/gcode"
)

// Heightmap is a top-down raster of the highest printed Z at each pixel.
// Pixels the nozzle never printed over stay at the bottom of the range.
type Heightmap struct {
	Width  int
	Height int

	height  []float64
	plotted []bool

	origin  mgl64.Vec3
	pxPerMm float64
	minZ    float64
	maxZ    float64
}

// NewHeightmap sizes a heightmap to the printed extent of tr at pxPerMm
// pixels per millimetre, with a one pixel border, and plots every printed
// edge into it.
func NewHeightmap(tr *gcode.Trace, pxPerMm float64) *Heightmap {
	min, max := printedBounds(tr)

	hm := Heightmap{
		origin:  min,
		pxPerMm: pxPerMm,
		minZ:    min.Z(),
		maxZ:    max.Z(),
	}
	hm.Width = int(math.Ceil((max.X()-min.X())*pxPerMm)) + 3
	hm.Height = int(math.Ceil((max.Y()-min.Y())*pxPerMm)) + 3
	hm.height = make([]float64, hm.Width*hm.Height)
	hm.plotted = make([]bool, hm.Width*hm.Height)

	for _, e := range tr.Printed {
		hm.PlotLine(tr.Vertices[e[0]], tr.Vertices[e[1]])
	}

	return &hm
}

func printedBounds(tr *gcode.Trace) (mgl64.Vec3, mgl64.Vec3) {
	if len(tr.Printed) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	min := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, e := range tr.Printed {
		for _, i := range e {
			v := tr.Vertices[i]
			for k := 0; k < 3; k++ {
				min[k] = math.Min(min[k], v[k])
				max[k] = math.Max(max[k], v[k])
			}
		}
	}
	return min, max
}

// px converts a position in mm to pixel coordinates, with Y pointing down the
// image.
func (hm *Heightmap) px(v mgl64.Vec3) (float64, float64) {
	x := (v.X()-hm.origin.X())*hm.pxPerMm + 1
	y := float64(hm.Height-2) - (v.Y()-hm.origin.Y())*hm.pxPerMm
	return x, y
}

// PlotLine plots a printed segment, stepping one pixel at a time.
func (hm *Heightmap) PlotLine(a, b mgl64.Vec3) {
	ax, ay := hm.px(a)
	bx, by := hm.px(b)

	hm.PlotPixel(int(math.Round(ax)), int(math.Round(ay)), a.Z())

	dx := bx - ax
	dy := by - ay
	dz := b.Z() - a.Z()
	length := math.Sqrt(dx*dx + dy*dy)

	if length < 1 {
		hm.PlotPixel(int(math.Round(bx)), int(math.Round(by)), b.Z())
		return
	}

	steps := int(math.Ceil(length))
	for i := 1; i <= steps; i++ {
		k := float64(i) / float64(steps)
		hm.PlotPixel(int(math.Round(ax+dx*k)), int(math.Round(ay+dy*k)), a.Z()+dz*k)
	}
}

// PlotPixel raises the pixel to z if it is lower.
func (hm *Heightmap) PlotPixel(x, y int, z float64) {
	if x < 0 || x >= hm.Width || y < 0 || y >= hm.Height {
		return
	}

	n := y*hm.Width + x
	if !hm.plotted[n] || z > hm.height[n] {
		hm.height[n] = z
		hm.plotted[n] = true
	}
}

// Z returns the plotted height at a pixel and whether anything was printed
// there.
func (hm *Heightmap) Z(x, y int) (float64, bool) {
	if x < 0 || x >= hm.Width || y < 0 || y >= hm.Height {
		return 0, false
	}
	n := y*hm.Width + x
	return hm.height[n], hm.plotted[n]
}

// Image encodes heights as 24-bit brightness, black at the lowest printed Z
// and white at the highest. Printed pixels are never fully black, so they
// stay distinct from empty ones.
func (hm *Heightmap) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, hm.Width, hm.Height))

	span := hm.maxZ - hm.minZ
	for y := 0; y < hm.Height; y++ {
		for x := 0; x < hm.Width; x++ {
			n := y*hm.Width + x

			brightness := 0
			if hm.plotted[n] {
				z := 1.0
				if span > 0 {
					z = (hm.height[n] - hm.minZ) / span
				}
				brightness = 1 + int(16777214*z)
			}

			img.Pix[n*4] = uint8(brightness >> 16)
			img.Pix[n*4+1] = uint8((brightness >> 8) & 0xff)
			img.Pix[n*4+2] = uint8(brightness & 0xff)
			img.Pix[n*4+3] = 255
		}
	}

	return img
}

func (hm *Heightmap) EncodePNG(w io.Writer) error {
	return png.Encode(w, hm.Image())
}

func (hm *Heightmap) WritePNG(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := hm.EncodePNG(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
