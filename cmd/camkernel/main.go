// camkernel plans a machining job and writes the G-code program.
//
// Plan a job file against a tool library:
//
//	camkernel -job bracket.yaml -tools tools.json -out bracket.nc -pdf bracket.pdf
//
// Build a job from a DXF drawing (nested outlines become pockets, the outer
// outline a profile, small circles drill holes):
//
//	camkernel -dxf plate.dxf -mill em6 -drill dr5 -depth 6 -material aluminum
//
// Check an existing program against a job's stock:
//
//	camkernel -verify bracket.nc -job bracket.yaml -tool em10
//
// The exit status is 1 on errors and 2 when -strict is set and a collision
// check failed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/piwi3910/camkernel/internal/engine"
	"github.com/piwi3910/camkernel/internal/project"
)

const (
	exitOK     = 0
	exitError  = 1
	exitUnsafe = 2
)

type options struct {
	jobPath       string
	dxfPath       string
	toolsPath     string
	mergeTools    string
	materialsPath string
	configPath    string
	controller    string
	material      string
	outPath       string
	pdfPath       string
	labelsPath    string
	saveJob       string
	verifyPath    string
	verifyTool    string
	backupPath    string
	restorePath   string

	millTool  string
	drillTool string
	depth     float64
	stepDown  float64
	peckDepth float64
	normalize bool

	compare bool
	strict  bool
	verbose bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("camkernel", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.jobPath, "job", "", "job file (.json, .yaml or .yml)")
	fs.StringVar(&o.dxfPath, "dxf", "", "build the job from a DXF drawing instead of -job")
	fs.StringVar(&o.toolsPath, "tools", project.DefaultToolLibraryPath(), "tool library (.json, .csv or .xlsx)")
	fs.StringVar(&o.mergeTools, "merge-tools", "", "merge another tool library file into -tools and save it")
	fs.StringVar(&o.materialsPath, "materials", project.DefaultMaterialsPath(), "custom material table (.json or .yaml)")
	fs.StringVar(&o.configPath, "config", project.DefaultConfigPath(), "application config file")
	fs.StringVar(&o.controller, "controller", "", "override the job's controller dialect")
	fs.StringVar(&o.material, "material", "", "override the job's material")
	fs.StringVar(&o.outPath, "out", "", "output G-code file (default: stdout)")
	fs.StringVar(&o.pdfPath, "pdf", "", "write a PDF setup sheet")
	fs.StringVar(&o.labelsPath, "labels", "", "write QR tool labels (the whole library when no job is given)")
	fs.StringVar(&o.saveJob, "save-job", "", "save the loaded or generated job (.json, .yaml or .yml)")
	fs.StringVar(&o.verifyPath, "verify", "", "collision-check an existing G-code program instead of planning")
	fs.StringVar(&o.verifyTool, "tool", "", "tool id or name used by -verify (default: the job's first tool)")
	fs.StringVar(&o.backupPath, "backup", "", "write config, tools and custom materials to one backup file")
	fs.StringVar(&o.restorePath, "restore", "", "restore config, tools and custom materials from a backup file")

	fs.StringVar(&o.millTool, "mill", "", "DXF: tool id for pockets and the profile")
	fs.StringVar(&o.drillTool, "drill", "", "DXF: tool id for drill holes")
	fs.Float64Var(&o.depth, "depth", 5, "DXF: cut depth below the top (mm, positive)")
	fs.Float64Var(&o.stepDown, "stepdown", 0, "DXF: step-down per pass (mm, 0 for a single pass)")
	fs.Float64Var(&o.peckDepth, "peck", 0, "DXF: peck depth for drill holes (mm, 0 for no pecking)")
	fs.BoolVar(&o.normalize, "normalize", false, "DXF: move the drawing so its lower-left corner is the origin")

	fs.BoolVar(&o.compare, "compare", false, "print stepover scenarios for every pocket")
	fs.BoolVar(&o.strict, "strict", false, "exit with status 2 when a collision check fails")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.jobPath != "" && o.dxfPath != "" {
		return o, errors.New("-job and -dxf are mutually exclusive")
	}
	if o.dxfPath != "" && o.millTool == "" && o.drillTool == "" {
		return o, errors.New("-dxf needs -mill, -drill or both")
	}
	if o.depth <= 0 {
		return o, errors.New("-depth must be > 0")
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	engine.SetLogger(logger)
	defer engine.SetLogger(nil)

	code, err := execute(o, stdout, stderr, logger)
	if err != nil {
		logger.Error(err.Error())
		return exitError
	}
	return code
}
