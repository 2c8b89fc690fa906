// Package toolpath holds the ordered polylines of a print and the reordering
// steps applied to them before G-code emission.
package toolpath

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"extrude-gcode/internal/logging"
)

var (
	ErrDegenerate        = errors.New("polyline needs at least two points")
	ErrAttributeLength   = errors.New("attribute length does not match point count")
	ErrMissingAttributes = errors.New("polyline is missing per-point attributes")
)

// Attr is a set of optional per-point attributes.
type Attr uint8

const (
	LayerHeightAttr Attr = 1 << iota
	SpeedAttr
)

func (a Attr) Has(b Attr) bool { return a&b == b }

func (a Attr) String() string {
	switch a {
	case 0:
		return "none"
	case LayerHeightAttr:
		return "layer height"
	case SpeedAttr:
		return "speed"
	}
	return "layer height, speed"
}

// Toolpoint is a single position along a polyline together with its
// per-point attributes. LayerHeight and Speed are only meaningful when the
// owning Toolpath carries the matching Attr.
type Toolpoint struct {
	Pos         mgl64.Vec3
	LayerHeight float64
	Speed       float64
}

type Polyline struct {
	Points []Toolpoint

	// Cyclic polylines form a ring. Until Close or SortXY runs the ring is
	// stored without repeating its first point.
	Cyclic bool

	attrs  Attr
	closed bool
}

// NewPolyline builds a polyline from parallel arrays. layerHeights and speeds
// may be nil; when present they must have one value per point. A cyclic
// polyline given with its first point repeated at the end has the repeat
// dropped.
func NewPolyline(pts []mgl64.Vec3, cyclic bool, layerHeights, speeds []float64) (Polyline, error) {
	p := Polyline{
		Points: make([]Toolpoint, len(pts)),
		Cyclic: cyclic,
	}

	if layerHeights != nil {
		if len(layerHeights) != len(pts) {
			return Polyline{}, fmt.Errorf("layer height: %d values for %d points: %w", len(layerHeights), len(pts), ErrAttributeLength)
		}
		p.attrs |= LayerHeightAttr
	}
	if speeds != nil {
		if len(speeds) != len(pts) {
			return Polyline{}, fmt.Errorf("speed: %d values for %d points: %w", len(speeds), len(pts), ErrAttributeLength)
		}
		p.attrs |= SpeedAttr
	}

	for i := range pts {
		p.Points[i].Pos = pts[i]
		if layerHeights != nil {
			p.Points[i].LayerHeight = layerHeights[i]
		}
		if speeds != nil {
			p.Points[i].Speed = speeds[i]
		}
	}

	if cyclic && len(p.Points) > 2 && p.Points[0].Pos.ApproxEqual(p.Points[len(p.Points)-1].Pos) {
		p.Points = p.Points[:len(p.Points)-1]
	}

	return p, nil
}

// Attrs reports which per-point attributes the polyline was built with.
func (p *Polyline) Attrs() Attr {
	return p.attrs
}

func (p *Polyline) Append(t Toolpoint) {
	p.Points = append(p.Points, t)
}

func (p *Polyline) First() mgl64.Vec3 {
	return p.Points[0].Pos
}

func (p *Polyline) Last() mgl64.Vec3 {
	return p.Points[len(p.Points)-1].Pos
}

// Closed reports whether the ring has had its start point repeated at the end.
func (p *Polyline) Closed() bool {
	return p.closed
}

// ring returns the points of a cyclic polyline without any closing repeat.
func (p *Polyline) ring() []Toolpoint {
	if p.closed {
		return p.Points[:len(p.Points)-1]
	}
	return p.Points
}

func (p *Polyline) Centroid() mgl64.Vec3 {
	var sum mgl64.Vec3
	for i := range p.Points {
		sum = sum.Add(p.Points[i].Pos)
	}
	return sum.Mul(1 / float64(len(p.Points)))
}

func (p *Polyline) MeanZ() float64 {
	return p.Centroid().Z()
}

// Close repeats the first point of a cyclic polyline at its end, so the ring
// can be walked as an open sequence. It does nothing to open or already
// closed polylines.
func (p *Polyline) Close() {
	if !p.Cyclic || p.closed || len(p.Points) == 0 {
		return
	}
	p.Points = append(p.Points, p.Points[0])
	p.closed = true
}

// StartAt rotates a cyclic polyline to begin at ring index i and closes it.
func (p *Polyline) StartAt(i int) {
	ring := p.ring()
	rotated := make([]Toolpoint, 0, len(ring)+1)
	rotated = append(rotated, ring[i:]...)
	rotated = append(rotated, ring[:i]...)
	rotated = append(rotated, ring[i])
	p.Points = rotated
	p.closed = true
}

// StartNearest rotates a cyclic polyline to begin at the point nearest seek,
// closes it, and returns the chosen ring index.
func (p *Polyline) StartNearest(seek mgl64.Vec3) int {
	i := nearestIndex(p.ring(), seek)
	p.StartAt(i)
	return i
}

func (p *Polyline) Reverse() {
	for i, j := 0, len(p.Points)-1; i < j; i, j = i+1, j-1 {
		p.Points[i], p.Points[j] = p.Points[j], p.Points[i]
	}
}

func (p *Polyline) Reversed() Polyline {
	newp := *p
	newp.Points = append([]Toolpoint(nil), p.Points...)
	newp.Reverse()
	return newp
}

type Toolpath struct {
	Polylines []Polyline

	// Attrs lists the per-point attributes every polyline carries.
	Attrs Attr
}

// New validates the polylines and wraps them in a Toolpath. Every polyline
// needs at least two points, and per-point attributes must be carried by all
// polylines or by none.
func New(polylines []Polyline) (*Toolpath, error) {
	tp := Toolpath{Polylines: polylines}

	for i := range polylines {
		if len(polylines[i].Points) < 2 {
			return nil, fmt.Errorf("polyline %d has %d points: %w", i, len(polylines[i].Points), ErrDegenerate)
		}
		tp.Attrs |= polylines[i].attrs
	}

	for i := range polylines {
		if missing := tp.Attrs &^ polylines[i].attrs; missing != 0 {
			return nil, fmt.Errorf("polyline %d lacks %s: %w", i, missing, ErrMissingAttributes)
		}
	}

	return &tp, nil
}

func (tp *Toolpath) Len() int {
	return len(tp.Polylines)
}

// Close closes every cyclic polyline.
func (tp *Toolpath) Close() {
	for i := range tp.Polylines {
		tp.Polylines[i].Close()
	}
}

// SortZ orders polylines by the mean Z of their points, lowest first. Equal
// means keep their relative order.
func (tp *Toolpath) SortZ() {
	type layer struct {
		p     Polyline
		meanZ float64
	}

	layers := make([]layer, len(tp.Polylines))
	for i := range tp.Polylines {
		layers[i] = layer{tp.Polylines[i], tp.Polylines[i].MeanZ()}
	}
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].meanZ < layers[j].meanZ
	})
	for i := range layers {
		tp.Polylines[i] = layers[i].p
	}
}

// SortXY picks start points to shorten travel between consecutive polylines.
//
// A cyclic polyline is rotated to start at its point nearest a seek point
// built from the centroids of its neighbours: the next two for the first
// polyline, previous and next for a middle one, the previous two for the last
// one. The ring is closed again at its new start. An open polyline after the
// first is reversed when its last point is nearer than its first to where the
// previous polyline ends. Only immediate neighbours are considered.
func (tp *Toolpath) SortXY() {
	n := len(tp.Polylines)
	centroids := make([]mgl64.Vec3, n)
	for i := range tp.Polylines {
		centroids[i] = tp.Polylines[i].Centroid()
	}

	for j := range tp.Polylines {
		p := &tp.Polylines[j]

		if p.Cyclic {
			seek, ok := seekPoint(centroids, j)
			if !ok {
				p.StartAt(0)
				continue
			}
			start := p.StartNearest(seek)
			logging.Logger().Debug("rotated ring start", "polyline", j, "start", start)
			continue
		}

		if j == 0 {
			continue
		}
		last := tp.Polylines[j-1].Last()
		if last.Sub(p.Last()).Len() < last.Sub(p.First()).Len() {
			tp.Polylines[j] = p.Reversed()
			logging.Logger().Debug("reversed open polyline", "polyline", j)
		}
	}
}

func seekPoint(centroids []mgl64.Vec3, j int) (mgl64.Vec3, bool) {
	n := len(centroids)
	switch {
	case n < 2:
		return mgl64.Vec3{}, false
	case j == 0:
		return mean(centroids[1:min(3, n)]), true
	case j < n-1:
		return mean([]mgl64.Vec3{centroids[j-1], centroids[j+1]}), true
	default:
		return mean(centroids[max(0, j-2):j]), true
	}
}

func mean(pts []mgl64.Vec3) mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, v := range pts {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float64(len(pts)))
}

// Reorder applies the enabled reordering steps in their fixed order. Plain
// closing is skipped when XY sorting runs, since that closes rings itself.
func (tp *Toolpath) Reorder(sortLayers, sortPoints bool) {
	if !sortPoints {
		tp.Close()
	}
	if sortLayers {
		tp.SortZ()
	}
	if sortPoints {
		tp.SortXY()
	}
}
