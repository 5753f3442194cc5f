package importer

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"

	"github.com/piwi3910/camkernel/internal/geometry"
	"github.com/piwi3910/camkernel/internal/model"
)

// writeTestDXF draws a 100x50 rectangle from loose lines, a 30mm circular
// pocket and two 8mm holes.
func writeTestDXF(t *testing.T) string {
	t.Helper()
	d := dxf.NewDrawing()
	corners := [][2]float64{{10, 10}, {110, 10}, {110, 60}, {10, 60}}
	for i, c := range corners {
		n := corners[(i+1)%len(corners)]
		_, err := d.Line(c[0], c[1], 0, n[0], n[1], 0)
		require.NoError(t, err)
	}
	_, err := d.Circle(60, 35, 0, 15)
	require.NoError(t, err)
	for _, x := range []float64{20, 100} {
		_, err := d.Circle(x, 35, 0, 4)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "part.dxf")
	require.NoError(t, d.SaveAs(path))
	return path
}

func TestImportDXF_BoundariesAndHoles(t *testing.T) {
	result := ImportDXF(writeTestDXF(t), DXFOptions{})
	require.Empty(t, result.Errors)

	require.Len(t, result.Boundaries, 2)
	outer := result.Boundaries[0]
	assert.Len(t, outer, 4, "chained lines close into the rectangle")
	assert.InDelta(t, 5000.0, math.Abs(geometry.SignedArea(outer)), 1e-6)
	assert.InDelta(t, math.Pi*15*15, math.Abs(geometry.SignedArea(result.Boundaries[1])), 10)

	require.Len(t, result.Holes, 2)
	assert.InDelta(t, 20.0, result.Holes[0].X, 1e-9)
	assert.InDelta(t, 35.0, result.Holes[0].Y, 1e-9)
}

func TestImportDXF_HoleThreshold(t *testing.T) {
	result := ImportDXF(writeTestDXF(t), DXFOptions{MaxHoleDiameter: -1})
	assert.Empty(t, result.Holes)
	assert.Len(t, result.Boundaries, 4)

	result = ImportDXF(writeTestDXF(t), DXFOptions{MaxHoleDiameter: 40})
	assert.Len(t, result.Holes, 3)
	assert.Len(t, result.Boundaries, 1)
}

func TestImportDXF_Normalize(t *testing.T) {
	result := ImportDXF(writeTestDXF(t), DXFOptions{Normalize: true})
	require.Empty(t, result.Errors)

	min, max := result.Boundaries[0].BoundingBox()
	assert.InDelta(t, 0.0, min.X, 1e-9)
	assert.InDelta(t, 0.0, min.Y, 1e-9)
	assert.InDelta(t, 100.0, max.X, 1e-9)
	assert.InDelta(t, 50.0, max.Y, 1e-9)
	assert.InDelta(t, 10.0, result.Holes[0].X, 1e-9)
}

func TestImportDXF_FileNotFound(t *testing.T) {
	result := ImportDXF("/nonexistent/part.dxf", DXFOptions{})
	assert.NotEmpty(t, result.Errors)
}

func TestChainSegments_OpenChainCounted(t *testing.T) {
	segs := []segment{
		{start: model.Point2D{X: 0, Y: 0}, end: model.Point2D{X: 10, Y: 0}},
		{start: model.Point2D{X: 10, Y: 10}, end: model.Point2D{X: 10, Y: 0}},
		{start: model.Point2D{X: 10, Y: 10}, end: model.Point2D{X: 0, Y: 10}},
		{start: model.Point2D{X: 0, Y: 10}, end: model.Point2D{X: 0, Y: 0.005}},
		{start: model.Point2D{X: 50, Y: 50}, end: model.Point2D{X: 60, Y: 50}},
	}
	outlines, open := chainSegments(segs, chainTolerance)
	require.Len(t, outlines, 1)
	assert.Len(t, outlines[0], 4)
	assert.Equal(t, 1, open)
}

func TestBulgePoints_Semicircle(t *testing.T) {
	p1 := model.Point2D{X: 0, Y: 0}
	p2 := model.Point2D{X: 10, Y: 0}

	ccw := bulgePoints(p1, p2, 1, 8)
	require.Len(t, ccw, 9)
	assert.InDelta(t, 5.0, ccw[4].X, 1e-9)
	assert.InDelta(t, -5.0, ccw[4].Y, 1e-9, "positive bulge sweeps counter-clockwise, below the chord")
	assert.Equal(t, p2, ccw[8])

	cw := bulgePoints(p1, p2, -1, 8)
	assert.InDelta(t, 5.0, cw[4].Y, 1e-9)
}

func TestOperations_FromFeatures(t *testing.T) {
	r := ImportResult{
		Boundaries: []model.Outline{
			model.Rectangle(0, 0, 100, 50),
			model.Rectangle(20, 10, 40, 30).Reversed(),
			model.Rectangle(200, 200, 210, 210),
		},
		Holes: []model.Point2D{{X: 80, Y: 25}},
	}
	ops := r.Operations(FeatureOptions{
		MillToolID:  "em6",
		DrillToolID: "dr5",
		ZTop:        0,
		Depth:       5,
		StepDown:    2,
		PeckDepth:   2,
	})
	require.Len(t, ops, 3)

	assert.Equal(t, model.OpPeckDrill, ops[0].Type)
	assert.Equal(t, -5.0, ops[0].ZBottom)

	assert.Equal(t, model.OpPocket2D, ops[1].Type)
	assert.True(t, geometry.IsCCW(ops[1].Boundary))

	assert.Equal(t, model.OpContour2D, ops[2].Type)
	assert.Equal(t, model.SideLeft, ops[2].Side)
	assert.False(t, geometry.IsCCW(ops[2].Boundary), "outside profile runs clockwise")

	assert.Len(t, r.Operations(FeatureOptions{MillToolID: "em6"}), 2, "holes need a drill")
}
