package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/project"
)

func newTestTools() model.ToolLibrary {
	em := model.NewToolSpec("10mm Carbide End Mill", model.ToolEndMill, 10, 22, 72, 4)
	em.ID = "em10"
	drill := model.NewToolSpec("8.5mm Drill", model.ToolDrill, 8.5, 43, 103, 2)
	drill.ID = "dr85"
	return model.ToolLibrary{Tools: []model.ToolSpec{em, drill}}
}

func newTestJob() model.Job {
	job := model.NewJob("Bracket")
	job.Stock = model.NewStockBounds(0, 0, -20, 100, 50, 0)
	job.Operations = []model.Operation{
		{
			Name:     "Pocket",
			Type:     model.OpPocket2D,
			ToolID:   "em10",
			ZBottom:  -6,
			StepDown: 3,
			Boundary: model.Rectangle(20, 10, 80, 40),
		},
		{
			Name:      "Holes",
			Type:      model.OpPeckDrill,
			ToolID:    "dr85",
			ZBottom:   -10,
			PeckDepth: 3,
			Holes:     []model.Point2D{{X: 10, Y: 25}, {X: 90, Y: 25}},
		},
	}
	return job
}

// setup writes a tool library and returns it with the flags that keep the
// run away from the home directory.
func setup(t *testing.T) (dir string, args []string) {
	t.Helper()
	dir = t.TempDir()
	tools := filepath.Join(dir, "tools.json")
	require.NoError(t, project.SaveToolLibrary(tools, newTestTools()))
	return dir, []string{
		"-tools", tools,
		"-config", filepath.Join(dir, "config.json"),
		"-materials", filepath.Join(dir, "materials.json"),
	}
}

func writeJob(t *testing.T, dir string, job model.Job) string {
	t.Helper()
	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, project.SaveJob(path, job))
	return path
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// ─── Planning ───────────────────────────────────────────────

func TestRun_PlansJobToStdout(t *testing.T) {
	dir, args := setup(t)
	jobPath := writeJob(t, dir, newTestJob())

	code, stdout, stderr := runCLI(append(args, "-job", jobPath)...)
	require.Equal(t, exitOK, code, stderr)

	assert.True(t, strings.HasPrefix(stdout, "%\nO1000\n"))
	assert.Contains(t, stdout, "T1 M6")
	assert.Contains(t, stdout, "T2 M6")
	assert.Contains(t, stdout, "M30")
	assert.Contains(t, stderr, "job planned")
	assert.Contains(t, stderr, "safe=true")
}

func TestRun_WritesOutputFiles(t *testing.T) {
	dir, args := setup(t)
	jobPath := writeJob(t, dir, newTestJob())
	out := filepath.Join(dir, "bracket.nc")
	pdf := filepath.Join(dir, "bracket.pdf")
	labels := filepath.Join(dir, "labels.pdf")

	code, stdout, stderr := runCLI(append(args, "-job", jobPath, "-out", out, "-pdf", pdf, "-labels", labels)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	program, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(program), "(Bracket)")

	for _, p := range []string{pdf, labels} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), p)
	}
}

func TestRun_ControllerOverride(t *testing.T) {
	dir, args := setup(t)
	jobPath := writeJob(t, dir, newTestJob())

	code, stdout, stderr := runCLI(append(args, "-job", jobPath, "-controller", "HAAS")...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "G17 G90 G40 G49 G80 G54")

	code, _, stderr = runCLI(append(args, "-job", jobPath, "-controller", "bogus")...)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "unknown controller")
}

func TestRun_StrictUnsafe(t *testing.T) {
	dir, args := setup(t)
	job := newTestJob()
	job.Operations = append(job.Operations, model.Operation{
		Name:     "Deep",
		Type:     model.OpContour2D,
		ToolID:   "em10",
		ZBottom:  -25,
		StepDown: 5,
		Boundary: model.Rectangle(10, 10, 90, 40),
	})
	jobPath := writeJob(t, dir, job)

	code, _, stderr := runCLI(append(args, "-job", jobPath)...)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "collision check failed")

	code, _, _ = runCLI(append(args, "-job", jobPath, "-strict")...)
	assert.Equal(t, exitUnsafe, code)
}

func TestRun_Compare(t *testing.T) {
	dir, args := setup(t)
	jobPath := writeJob(t, dir, newTestJob())

	code, _, stderr := runCLI(append(args, "-job", jobPath, "-compare")...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "SCENARIO")
	assert.Contains(t, stderr, "Current Stepover")
	assert.Contains(t, stderr, "25% of D")
}

func TestRun_UnknownToolFails(t *testing.T) {
	dir, args := setup(t)
	job := newTestJob()
	job.Operations[0].ToolID = "missing"
	jobPath := writeJob(t, dir, job)

	code, _, stderr := runCLI(append(args, "-job", jobPath)...)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "unknown tool")
}

// ─── DXF ────────────────────────────────────────────────────

func writeTestDXF(t *testing.T, dir string) string {
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
	for _, x := range []float64{25, 95} {
		_, err := d.Circle(x, 35, 0, 4)
		require.NoError(t, err)
	}
	path := filepath.Join(dir, "plate.dxf")
	require.NoError(t, d.SaveAs(path))
	return path
}

func TestRun_DXFBuildsAndSavesJob(t *testing.T) {
	dir, args := setup(t)
	dxfPath := writeTestDXF(t, dir)
	saved := filepath.Join(dir, "plate.yaml")

	code, stdout, stderr := runCLI(append(args,
		"-dxf", dxfPath, "-mill", "em10", "-drill", "dr85",
		"-depth", "5", "-peck", "2", "-save-job", saved)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "(plate)")
	assert.Contains(t, stdout, "(Drill - T2")

	job, err := project.LoadJob(saved)
	require.NoError(t, err)
	require.Len(t, job.Operations, 3)
	assert.Equal(t, model.OpPeckDrill, job.Operations[0].Type)
	assert.Equal(t, model.OpPocket2D, job.Operations[1].Type)
	assert.Equal(t, model.OpContour2D, job.Operations[2].Type)
	assert.Equal(t, model.NewStockBounds(10, 10, -5, 110, 60, 0), job.Stock)
}

func TestRun_DXFNeedsTools(t *testing.T) {
	dir, args := setup(t)
	code, _, stderr := runCLI(append(args, "-dxf", writeTestDXF(t, dir))...)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "-mill")
}

// ─── Verify ─────────────────────────────────────────────────

func TestRun_VerifyExistingProgram(t *testing.T) {
	dir, args := setup(t)
	jobPath := writeJob(t, dir, newTestJob())

	bad := filepath.Join(dir, "bad.nc")
	program := "G90 G0 X50. Y25. Z5.\nG1 Z-30. F200\nG0 Z25.\nM30\n"
	require.NoError(t, os.WriteFile(bad, []byte(program), 0644))

	code, _, stderr := runCLI(append(args, "-verify", bad, "-job", jobPath, "-tool", "em10")...)
	assert.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "gouge")
	assert.Contains(t, stderr, "safe=false")

	code, _, _ = runCLI(append(args, "-verify", bad, "-job", jobPath, "-strict")...)
	assert.Equal(t, exitUnsafe, code)
}

func TestRun_VerifyNeedsJob(t *testing.T) {
	dir, args := setup(t)
	prog := filepath.Join(dir, "p.nc")
	require.NoError(t, os.WriteFile(prog, []byte("G0 X0 Y0\n"), 0644))

	code, _, stderr := runCLI(append(args, "-verify", prog)...)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "stock")
}

// ─── Tools, backup, labels ──────────────────────────────────

func TestRun_LibraryLabelsWithoutJob(t *testing.T) {
	dir, args := setup(t)
	labels := filepath.Join(dir, "labels.pdf")

	code, _, stderr := runCLI(append(args, "-labels", labels)...)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, labels)
}

func TestRun_CSVToolSheet(t *testing.T) {
	dir, args := setup(t)
	csvPath := filepath.Join(dir, "tools.csv")
	csv := "ID,Name,Family,Diameter,Flute Length,Total Length,Flutes\n" +
		"em6,6mm End Mill,end_mill,6,13,57,3\n" +
		"bad,Broken,laser,6,13,57,3\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0644))
	args[1] = csvPath
	labels := filepath.Join(dir, "labels.pdf")

	code, _, stderr := runCLI(append(args, "-labels", labels)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "Unknown tool family")
	assert.FileExists(t, labels)
}

func TestRun_MergeTools(t *testing.T) {
	dir, args := setup(t)
	extra := filepath.Join(dir, "extra.json")
	extraLib := model.ToolLibrary{Tools: []model.ToolSpec{
		{ID: "em10", Name: "Duplicate", Family: model.ToolEndMill, Diameter: 10},
		{ID: "bn6", Name: "6mm Ball", Family: model.ToolBallNose, Diameter: 6, FluteCount: 2},
	}}
	require.NoError(t, project.SaveToolLibrary(extra, extraLib))

	code, _, stderr := runCLI(append(args, "-merge-tools", extra)...)
	require.Equal(t, exitOK, code, stderr)

	lib, err := project.LoadToolLibrary(args[1])
	require.NoError(t, err)
	assert.Len(t, lib.Tools, 3)
	assert.Equal(t, "10mm Carbide End Mill", lib.FindToolByID("em10").Name)
}

func TestRun_BackupAndRestore(t *testing.T) {
	dir, args := setup(t)
	backup := filepath.Join(dir, "backup.json")

	code, _, stderr := runCLI(append(args, "-backup", backup)...)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, backup)

	restored := t.TempDir()
	tools := filepath.Join(restored, "tools.json")
	config := filepath.Join(restored, "config.json")
	code, _, stderr = runCLI("-restore", backup, "-tools", tools, "-config", config,
		"-materials", filepath.Join(restored, "materials.json"))
	require.Equal(t, exitOK, code, stderr)

	lib, err := project.LoadToolLibrary(tools)
	require.NoError(t, err)
	assert.Len(t, lib.Tools, 2)
	assert.FileExists(t, config)
}

// ─── Flags ──────────────────────────────────────────────────

func TestRun_FlagErrors(t *testing.T) {
	_, args := setup(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing to do", nil, "nothing to do"},
		{"job and dxf", []string{"-job", "a.json", "-dxf", "b.dxf"}, "mutually exclusive"},
		{"zero depth", []string{"-depth", "0"}, "-depth"},
		{"stray argument", []string{"extra"}, "unexpected arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(append(append([]string(nil), args...), tt.args...)...)
			assert.Equal(t, exitError, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCLI("-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "-job")
}
