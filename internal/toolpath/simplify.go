package toolpath

// Simplified returns a copy without interior points that lie on the straight
// line between their neighbours and carry the same attributes as the point
// after them. The segment ending at a point is printed with that point's
// attributes, so such a point can go without changing the output.
func (p *Polyline) Simplified() Polyline {
	newp := *p
	newp.Points = nil

	if len(p.Points) <= 2 {
		newp.Points = append(newp.Points, p.Points...)
		return newp
	}

	epsilon := 0.00001

	newp.Append(p.Points[0])
	prev := p.Points[1]

	for i := 2; i < len(p.Points); i++ {
		first := newp.Points[len(newp.Points)-1]
		cur := p.Points[i]

		// if first->prev points the same way as prev->cur then prev is on the
		// line first->cur and can go
		a := prev.Pos.Sub(first.Pos)
		b := cur.Pos.Sub(prev.Pos)
		straight := a.Len() > epsilon && b.Len() > epsilon &&
			a.Normalize().Sub(b.Normalize()).Len() < epsilon
		sameAttrs := prev.LayerHeight == cur.LayerHeight && prev.Speed == cur.Speed

		if !straight || !sameAttrs {
			newp.Append(prev)
		}
		prev = cur
	}

	newp.Append(prev)

	return newp
}

// Merged returns a copy that skips points until the path walked since the
// last kept point exceeds dist. The first point of the polyline is always
// kept, and so is the last point of an open one. On a ring the walk wraps
// round to the start, so a last kept point too close to the start is
// dropped as well.
func (p *Polyline) Merged(dist float64) Polyline {
	newp := *p
	newp.Points = nil

	if dist <= 0 || len(p.Points) == 0 {
		newp.Points = append(newp.Points, p.Points...)
		return newp
	}

	pts := p.Points
	if p.Cyclic {
		pts = p.ring()
		newp.closed = false
	}

	newp.Append(pts[0])
	walked := 0.0
	keptLast := true
	for i := 1; i < len(pts); i++ {
		walked += pts[i].Pos.Sub(pts[i-1].Pos).Len()
		keptLast = walked > dist
		if keptLast {
			newp.Append(pts[i])
			walked = 0
		}
	}

	if p.Cyclic {
		walked += pts[0].Pos.Sub(pts[len(pts)-1].Pos).Len()
		if walked <= dist && len(newp.Points) > 1 {
			newp.Points = newp.Points[:len(newp.Points)-1]
		}
		if p.closed {
			newp.Close()
		}
	} else if !keptLast {
		if len(newp.Points) > 1 {
			newp.Points[len(newp.Points)-1] = pts[len(pts)-1]
		} else {
			newp.Append(pts[len(pts)-1])
		}
	}

	return newp
}

// Simplified returns a copy of the toolpath with collinear points removed.
func (tp *Toolpath) Simplified() *Toolpath {
	newtp := Toolpath{Attrs: tp.Attrs}
	for i := range tp.Polylines {
		newtp.Polylines = append(newtp.Polylines, tp.Polylines[i].Simplified())
	}
	return &newtp
}

// PathLength is the printed length of the toolpath, not counting moves
// between polylines.
func (tp *Toolpath) PathLength() float64 {
	total := 0.0
	for i := range tp.Polylines {
		total += tp.Polylines[i].PathLength()
	}
	return total
}

// PathLength is the length of the polyline walked from first to last point.
func (p *Polyline) PathLength() float64 {
	total := 0.0
	for i := 1; i < len(p.Points); i++ {
		total += p.Points[i].Pos.Sub(p.Points[i-1].Pos).Len()
	}
	return total
}
