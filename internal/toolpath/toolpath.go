package toolpath

import (
	"math"

	"github.com/google/uuid"

	"github.com/piwi3910/camkernel/internal/model"
)

// DefaultRapidRate is the rapid traverse rate (mm/min) used for time
// estimates when the machine's own rate is not known.
const DefaultRapidRate = 5000.0

// Stats summarises a toolpath. It is always derived from the moves.
type Stats struct {
	RapidMoves      int     `json:"rapid_moves"`
	CuttingMoves    int     `json:"cutting_moves"`
	TotalDistance   float64 `json:"total_distance"`
	CuttingDistance float64 `json:"cutting_distance"`
	EstimatedTime   float64 `json:"estimated_time"` // minutes
}

// Toolpath is an immutable sequence of moves for one tool and operation.
// Build derived toolpaths with New or WithMoves; never edit Moves in place.
type Toolpath struct {
	ID        string              `json:"id"`
	Operation model.OperationType `json:"operation"`
	ToolID    string              `json:"tool_id"`
	Moves     []Move              `json:"moves"`
	ZSafe     float64             `json:"z_safe"`
	ZTop      float64             `json:"z_top"`
	RapidRate float64             `json:"rapid_rate"`
	Stats     Stats               `json:"stats"`
}

// New builds a toolpath from moves. The moves are copied and the
// statistics computed from them.
func New(op model.OperationType, toolID string, zSafe, zTop float64, moves []Move) Toolpath {
	tp := Toolpath{
		ID:        uuid.New().String()[:8],
		Operation: op,
		ToolID:    toolID,
		Moves:     append([]Move(nil), moves...),
		ZSafe:     zSafe,
		ZTop:      zTop,
		RapidRate: DefaultRapidRate,
	}
	tp.Stats = ComputeStats(tp.Moves, tp.Start(), tp.RapidRate)
	return tp
}

// WithMoves returns a copy of tp carrying different moves, with fresh stats.
func (tp Toolpath) WithMoves(moves []Move) Toolpath {
	out := tp
	out.Moves = append([]Move(nil), moves...)
	out.Stats = ComputeStats(out.Moves, out.Start(), out.RapidRate)
	return out
}

// WithRapidRate returns a copy of tp whose time estimate uses rate.
func (tp Toolpath) WithRapidRate(rate float64) Toolpath {
	out := tp
	if rate > 0 {
		out.RapidRate = rate
	}
	out.Stats = ComputeStats(out.Moves, out.Start(), out.RapidRate)
	return out
}

// Start is the position assumed before the first move: the origin at safe Z.
func (tp Toolpath) Start() model.Point3D {
	return model.Point3D{Z: tp.ZSafe}
}

// IsEmpty reports whether the toolpath has no motion at all.
func (tp Toolpath) IsEmpty() bool {
	for _, m := range tp.Moves {
		if m.IsMotion() {
			return false
		}
	}
	return true
}

// Cursor tracks the modal position and feed while walking a move list.
type Cursor struct {
	Pos  model.Point3D
	Feed float64
}

// Step applies m and returns the positions before and after it.
func (c *Cursor) Step(m Move) (from, to model.Point3D) {
	from = c.Pos
	if !m.IsMotion() {
		return from, from
	}
	if m.F.Set {
		c.Feed = m.F.Value
	}
	c.Pos = m.Target(from)
	return from, c.Pos
}

// ComputeStats walks moves from start. Cutting time uses the programmed
// feed; moves with no known feed add distance but no time.
func ComputeStats(moves []Move, start model.Point3D, rapidRate float64) Stats {
	if rapidRate <= 0 {
		rapidRate = DefaultRapidRate
	}
	var s Stats
	c := Cursor{Pos: start}
	for _, m := range moves {
		if !m.IsMotion() {
			continue
		}
		from, to := c.Step(m)
		d := Length(from, to, m)
		s.TotalDistance += d
		if m.Type == MoveRapid {
			s.RapidMoves++
			s.EstimatedTime += d / rapidRate
			continue
		}
		s.CuttingMoves++
		s.CuttingDistance += d
		if c.Feed > 0 {
			s.EstimatedTime += d / c.Feed
		}
	}
	return s
}

// Length is the travel distance of m between from and to. Arcs follow
// their sweep, helical arcs include the Z travel.
func Length(from, to model.Point3D, m Move) float64 {
	if !m.Type.IsArc() {
		return from.Dist(to)
	}
	_, r, sweep, ok := ArcGeometry(from, to, m)
	if !ok {
		return from.Dist(to)
	}
	planar := r * math.Abs(sweep)
	return math.Hypot(planar, to.Z-from.Z)
}

// ArcGeometry resolves the center, radius and signed sweep (radians,
// positive counter-clockwise) of an arc move. An arc whose end equals its
// start is a full circle.
func ArcGeometry(from, to model.Point3D, m Move) (center model.Point2D, radius, sweep float64, ok bool) {
	cw := m.Type == MoveArcCW
	switch {
	case m.I.Set || m.J.Set:
		center = model.Point2D{X: from.X + m.I.Or(0), Y: from.Y + m.J.Or(0)}
	case m.R.Set:
		var found bool
		center, found = centerFromRadius(from.XY(), to.XY(), m.R.Value, cw)
		if !found {
			return center, 0, 0, false
		}
	default:
		return center, 0, 0, false
	}
	radius = from.XY().Dist(center)
	if radius < 1e-9 {
		return center, 0, 0, false
	}
	full := from.XY().Dist(to.XY()) < 1e-9
	ccw := 2 * math.Pi
	if !full {
		a0 := math.Atan2(from.Y-center.Y, from.X-center.X)
		a1 := math.Atan2(to.Y-center.Y, to.X-center.X)
		ccw = math.Mod(a1-a0+4*math.Pi, 2*math.Pi)
	}
	sweep = ccw
	if cw {
		sweep = -ccw
		if !full {
			sweep = ccw - 2*math.Pi
		}
	}
	return center, radius, sweep, true
}

// centerFromRadius finds the arc center for an R-word arc. A positive r
// selects the arc of at most 180 degrees.
func centerFromRadius(a, b model.Point2D, r float64, cw bool) (model.Point2D, bool) {
	chord := a.Dist(b)
	ar := math.Abs(r)
	if chord < 1e-9 || chord > 2*ar+1e-9 {
		return model.Point2D{}, false
	}
	mid := a.Add(b).Scale(0.5)
	h := math.Sqrt(math.Max(ar*ar-chord*chord/4, 0))
	// unit normal to the chord, to its left
	nx, ny := -(b.Y-a.Y)/chord, (b.X-a.X)/chord
	// CW short arcs and CCW long arcs have their center to the right of the chord.
	side := 1.0
	if cw == (r > 0) {
		side = -1
	}
	return model.Point2D{X: mid.X + side*h*nx, Y: mid.Y + side*h*ny}, true
}

// MaxLevels caps the depth levels of one pass. A step down that would need
// more is widened to spread the depth evenly over MaxLevels.
const MaxLevels = 1000

// levels returns the cutting depths from just below top down to bottom,
// stepping by step and always finishing exactly at bottom. It is empty
// when there is no depth to cut.
func levels(top, bottom, step float64) []float64 {
	if bottom >= top {
		return nil
	}
	if step <= 0 {
		return []float64{bottom}
	}
	if (top-bottom)/step > MaxLevels {
		step = (top - bottom) / MaxLevels
	}
	var out []float64
	for z := top - step; z > bottom+1e-9; z -= step {
		out = append(out, z)
	}
	return append(out, bottom)
}
