package gcode

import (
	"fmt"
	"math"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

// CollisionType classifies a detected problem.
type CollisionType string

const (
	CollisionRapidIntoStock CollisionType = "rapid_into_stock"
	CollisionGouge          CollisionType = "gouge"
	CollisionHolderContact  CollisionType = "holder_contact"
	CollisionOvertravel     CollisionType = "overtravel"
)

// Severity grades a collision. Only critical entries make a toolpath unsafe.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// DefaultNearMissClearance is the band above the stock top in which a rapid
// counts as a near miss.
const DefaultNearMissClearance = 2.0

// Collision is one flagged move.
type Collision struct {
	Type      CollisionType `json:"type"`
	Severity  Severity      `json:"severity"`
	MoveIndex int           `json:"move_index"`
	Position  model.Point3D `json:"position"`
	DepthMM   float64       `json:"depth_mm"`
	Message   string        `json:"message"`
}

// CollisionCheckResult is the verdict for one toolpath.
type CollisionCheckResult struct {
	Collisions    []Collision `json:"collisions"`
	GougeCount    int         `json:"gouge_count"`
	NearMissCount int         `json:"near_miss_count"`
	Safe          bool        `json:"safe"`
}

// Critical returns the entries that make the toolpath unsafe.
func (r CollisionCheckResult) Critical() []Collision {
	var out []Collision
	for _, c := range r.Collisions {
		if c.Severity == SeverityCritical {
			out = append(out, c)
		}
	}
	return out
}

// CheckOptions tunes a collision check.
type CheckOptions struct {
	NearMissClearance float64
	// TravelLimits, when set, is the machine envelope; any motion ending
	// outside it is overtravel.
	TravelLimits *model.StockBounds
}

// CheckCollisions verifies a toolpath against the stock box and tool with
// default options.
func CheckCollisions(tp toolpath.Toolpath, stock model.StockBounds, tool model.ToolSpec) CollisionCheckResult {
	return CheckCollisionsWithOptions(tp, stock, tool, CheckOptions{})
}

// CheckCollisionsWithOptions walks every motion move from the toolpath's
// start position and classifies its end point:
//
//   - a rapid ending over the stock (grown by the tool radius) below its top
//     is rapid_into_stock, unless it only moves Z down into a hole already
//     cut at that XY to at least that depth
//   - any feed move below the stock bottom is a gouge
//   - a feed move that puts the holder, which starts a flute length above
//     the tip, below the stock top within the holder radius is holder_contact
//   - a rapid within the near-miss band above the top is counted, not listed
//
// Holder contact is reported once per run of consecutive offending moves.
func CheckCollisionsWithOptions(tp toolpath.Toolpath, stock model.StockBounds, tool model.ToolSpec, opts CheckOptions) CollisionCheckResult {
	clearance := opts.NearMissClearance
	if clearance <= 0 {
		clearance = DefaultNearMissClearance
	}
	top := stock.Top()
	r := tool.Radius()
	holderR := tool.HolderRadius()

	result := CollisionCheckResult{}
	cleared := make(map[[2]int64]float64)
	c := toolpath.Cursor{Pos: tp.Start()}
	holderRun := false

	for i, m := range tp.Moves {
		if !m.IsMotion() {
			continue
		}
		from, to := c.Step(m)
		key := xyKey(to)

		if opts.TravelLimits != nil && !opts.TravelLimits.Contains(to) {
			result.Collisions = append(result.Collisions, Collision{
				Type:      CollisionOvertravel,
				Severity:  SeverityCritical,
				MoveIndex: i,
				Position:  to,
				DepthMM:   outside(*opts.TravelLimits, to),
				Message:   fmt.Sprintf("move %d ends outside the machine travel", i),
			})
		}

		if m.Type == toolpath.MoveRapid {
			holderRun = false
			over := stock.FootprintContains(to.X, to.Y, r)
			if !over {
				continue
			}
			switch {
			case to.Z < top:
				pureZ := from.X == to.X && from.Y == to.Y
				if depth, ok := cleared[key]; pureZ && ok && to.Z >= depth {
					continue
				}
				result.Collisions = append(result.Collisions, Collision{
					Type:      CollisionRapidIntoStock,
					Severity:  SeverityCritical,
					MoveIndex: i,
					Position:  to,
					DepthMM:   top - to.Z,
					Message:   fmt.Sprintf("rapid %d ends %.3f mm below the stock top", i, top-to.Z),
				})
			case to.Z < top+clearance:
				result.NearMissCount++
			}
			continue
		}

		if d, ok := cleared[key]; !ok || to.Z < d {
			cleared[key] = to.Z
		}

		if to.Z < stock.Min.Z {
			result.GougeCount++
			result.Collisions = append(result.Collisions, Collision{
				Type:      CollisionGouge,
				Severity:  SeverityCritical,
				MoveIndex: i,
				Position:  to,
				DepthMM:   stock.Min.Z - to.Z,
				Message:   fmt.Sprintf("move %d cuts %.3f mm below the stock bottom", i, stock.Min.Z-to.Z),
			})
		}

		holderBottom := to.Z + tool.FluteLength
		if tool.FluteLength > 0 && holderBottom < top && stock.FootprintContains(to.X, to.Y, holderR) {
			if !holderRun {
				result.Collisions = append(result.Collisions, Collision{
					Type:      CollisionHolderContact,
					Severity:  SeverityWarning,
					MoveIndex: i,
					Position:  to,
					DepthMM:   top - holderBottom,
					Message:   fmt.Sprintf("holder reaches %.3f mm below the stock top at move %d", top-holderBottom, i),
				})
			}
			holderRun = true
		} else {
			holderRun = false
		}
	}

	result.Safe = len(result.Critical()) == 0
	return result
}

// xyKey quantises a position to a micron grid for the cleared-depth map.
func xyKey(p model.Point3D) [2]int64 {
	return [2]int64{int64(math.Round(p.X * 1000)), int64(math.Round(p.Y * 1000))}
}

// outside returns how far p lies beyond the box, 0 if inside.
func outside(b model.StockBounds, p model.Point3D) float64 {
	dx := math.Max(math.Max(b.Min.X-p.X, p.X-b.Max.X), 0)
	dy := math.Max(math.Max(b.Min.Y-p.Y, p.Y-b.Max.Y), 0)
	dz := math.Max(math.Max(b.Min.Z-p.Z, p.Z-b.Max.Z), 0)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// FormatCollisionWarnings produces human-readable messages from a check result.
func FormatCollisionWarnings(label string, r CollisionCheckResult) []string {
	var warnings []string
	for _, c := range r.Collisions {
		warnings = append(warnings, fmt.Sprintf(
			"%s: %s %s at move %d (%.3f, %.3f, %.3f), depth %.3f mm",
			label, c.Severity, c.Type, c.MoveIndex,
			c.Position.X, c.Position.Y, c.Position.Z, c.DepthMM,
		))
	}
	if r.NearMissCount > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: %d rapid near miss(es) above the stock top", label, r.NearMissCount))
	}
	return warnings
}
