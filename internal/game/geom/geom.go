// Package geom provides the screen-space vector and rectangle types used for hit-testing.
package geom

import "math"

// Vec2 is a point or offset in screen coordinates. Y grows downward.
type Vec2 struct {
	X float64
	Y float64
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Distance returns the Euclidean distance between v and o.
func (v Vec2) Distance(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Min  Vec2
	Size Vec2
}

// R builds a Rect from its top-left corner and size.
func R(x, y, w, h float64) Rect {
	return Rect{Min: Vec2{X: x, Y: y}, Size: Vec2{X: w, Y: h}}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Vec2 {
	return r.Min.Add(r.Size)
}

// Contains reports whether p lies inside r using half-open intervals on both axes,
// so that two vertically adjacent rows never both contain a boundary point.
//
// Postcondition: Returns true iff Min.X <= p.X < Max.X and Min.Y <= p.Y < Max.Y.
func (r Rect) Contains(p Vec2) bool {
	end := r.Max()
	return p.X >= r.Min.X && p.X < end.X && p.Y >= r.Min.Y && p.Y < end.Y
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Size.X <= 0 || r.Size.Y <= 0
}
