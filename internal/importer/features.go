package importer

import (
	"fmt"

	"github.com/piwi3910/camkernel/internal/geometry"
	"github.com/piwi3910/camkernel/internal/model"
)

// FeatureOptions chooses tools and depths for operations built from
// imported features.
type FeatureOptions struct {
	MillToolID   string
	DrillToolID  string
	ZTop         float64
	Depth        float64 // positive, below ZTop
	StepDown     float64
	PeckDepth    float64
	StockToLeave float64 // contour only
}

// Operations turns imported features into a job's operation list: every
// boundary nested inside the largest one becomes a pocket, the largest
// boundary becomes an outside contour, and the holes become one peck drill
// operation. Pockets run first so the part stays held until the profile cut.
// Missing tool IDs leave the corresponding operations out.
func (r ImportResult) Operations(opts FeatureOptions) []model.Operation {
	var ops []model.Operation
	bottom := opts.ZTop - opts.Depth

	if opts.DrillToolID != "" && len(r.Holes) > 0 {
		ops = append(ops, model.Operation{
			Name:      "Drill",
			Type:      model.OpPeckDrill,
			ToolID:    opts.DrillToolID,
			ZTop:      opts.ZTop,
			ZBottom:   bottom,
			PeckDepth: opts.PeckDepth,
			Holes:     append([]model.Point2D(nil), r.Holes...),
		})
	}

	if opts.MillToolID == "" || len(r.Boundaries) == 0 {
		return ops
	}
	outer := r.Boundaries[0]
	for i, b := range r.Boundaries[1:] {
		if !geometry.Contains(outer, geometry.Centroid(b)) {
			continue
		}
		ops = append(ops, model.Operation{
			Name:     fmt.Sprintf("Pocket %d", i+1),
			Type:     model.OpPocket2D,
			ToolID:   opts.MillToolID,
			ZTop:     opts.ZTop,
			ZBottom:  bottom,
			StepDown: opts.StepDown,
			Boundary: geometry.CCW(b),
		})
	}
	ops = append(ops, model.Operation{
		Name:         "Profile",
		Type:         model.OpContour2D,
		ToolID:       opts.MillToolID,
		Side:         model.SideLeft,
		ZTop:         opts.ZTop,
		ZBottom:      bottom,
		StepDown:     opts.StepDown,
		StockToLeave: opts.StockToLeave,
		Boundary:     geometry.CCW(outer).Reversed(),
	})
	return ops
}
