package toolpath

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// ringPoint is a point of a ring remembering its position in the ring, so the
// k-d tree result can be mapped back to an index.
type ringPoint struct {
	pos   mgl64.Vec3
	index int
}

func (p ringPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(ringPoint)
	return p.pos[d] - q.pos[d]
}

func (p ringPoint) Dims() int { return 3 }

// Distance returns the squared distance.
func (p ringPoint) Distance(c kdtree.Comparable) float64 {
	d := p.pos.Sub(c.(ringPoint).pos)
	return d.Dot(d)
}

type ringPoints []ringPoint

func (p ringPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p ringPoints) Len() int                              { return len(p) }
func (p ringPoints) Pivot(d kdtree.Dim) int                { return ringPlane{Dim: d, ringPoints: p}.Pivot() }
func (p ringPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// ringPlane sorts ringPoints along one dimension for tree construction.
type ringPlane struct {
	kdtree.Dim
	ringPoints
}

func (p ringPlane) Less(i, j int) bool {
	return p.ringPoints[i].pos[p.Dim] < p.ringPoints[j].pos[p.Dim]
}
func (p ringPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p ringPlane) Slice(start, end int) kdtree.SortSlicer {
	p.ringPoints = p.ringPoints[start:end]
	return p
}
func (p ringPlane) Swap(i, j int) {
	p.ringPoints[i], p.ringPoints[j] = p.ringPoints[j], p.ringPoints[i]
}

// nearestIndex returns the index of the point in pts nearest to seek.
func nearestIndex(pts []Toolpoint, seek mgl64.Vec3) int {
	rp := make(ringPoints, len(pts))
	for i := range pts {
		rp[i] = ringPoint{pos: pts[i].Pos, index: i}
	}

	tree := kdtree.New(rp, false)
	got, _ := tree.Nearest(ringPoint{pos: seek})
	return got.(ringPoint).index
}
