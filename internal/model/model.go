package model

import "math"

// Point2D represents a 2D coordinate in mm.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale returns p scaled by s.
func (p Point2D) Scale(s float64) Point2D {
	return Point2D{X: p.X * s, Y: p.Y * s}
}

// Dist returns the euclidean distance between p and q.
func (p Point2D) Dist(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Point3D represents a machine coordinate in mm.
type Point3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// XY drops the Z component.
func (p Point3D) XY() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// Dist returns the euclidean distance between p and q.
func (p Point3D) Dist(q Point3D) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Outline represents a closed polygon as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min = o[0]
	max = o[0]
	for _, p := range o[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Reversed returns the outline traversed in the opposite direction.
func (o Outline) Reversed() Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[len(o)-1-i] = p
	}
	return result
}

// Perimeter returns the length of the closed outline.
func (o Outline) Perimeter() float64 {
	if len(o) < 2 {
		return 0
	}
	var total float64
	for i := range o {
		total += o[i].Dist(o[(i+1)%len(o)])
	}
	return total
}

// MinWidth returns the smaller side of the bounding box. Entry selection
// uses it as the feature width of a pocket.
func (o Outline) MinWidth() float64 {
	min, max := o.BoundingBox()
	return math.Min(max.X-min.X, max.Y-min.Y)
}

// Rectangle builds a counter-clockwise rectangular outline.
func Rectangle(x0, y0, x1, y1 float64) Outline {
	return Outline{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// StockBounds is the axis-aligned stock box used for collision checks.
type StockBounds struct {
	Min Point3D `json:"min" yaml:"min"`
	Max Point3D `json:"max" yaml:"max"`
}

// NewStockBounds builds a stock box from its footprint and Z range.
func NewStockBounds(x0, y0, z0, x1, y1, z1 float64) StockBounds {
	return StockBounds{
		Min: Point3D{X: math.Min(x0, x1), Y: math.Min(y0, y1), Z: math.Min(z0, z1)},
		Max: Point3D{X: math.Max(x0, x1), Y: math.Max(y0, y1), Z: math.Max(z0, z1)},
	}
}

// Top returns the Z of the stock top face.
func (s StockBounds) Top() float64 {
	return s.Max.Z
}

// FootprintContains reports whether (x, y) lies within the stock footprint
// grown by margin on every side.
func (s StockBounds) FootprintContains(x, y, margin float64) bool {
	return x >= s.Min.X-margin && x <= s.Max.X+margin &&
		y >= s.Min.Y-margin && y <= s.Max.Y+margin
}

// Contains reports whether p lies inside the box.
func (s StockBounds) Contains(p Point3D) bool {
	return s.FootprintContains(p.X, p.Y, 0) && p.Z >= s.Min.Z && p.Z <= s.Max.Z
}

// IsZero reports whether the bounds were left unset.
func (s StockBounds) IsZero() bool {
	return s == StockBounds{}
}
