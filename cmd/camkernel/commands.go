package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/piwi3910/camkernel/internal/engine"
	"github.com/piwi3910/camkernel/internal/export"
	"github.com/piwi3910/camkernel/internal/gcode"
	"github.com/piwi3910/camkernel/internal/importer"
	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/project"
)

var errNothingToDo = errors.New("nothing to do: give -job, -dxf, -labels, -backup or -restore")

// execute runs the command selected by o and returns the exit status.
func execute(o options, stdout, stderr io.Writer, logger *slog.Logger) (int, error) {
	if o.restorePath != "" {
		return exitOK, restore(o, logger)
	}

	cfg, err := project.LoadAppConfig(o.configPath)
	if err != nil {
		return exitError, fmt.Errorf("loading config: %w", err)
	}
	materials, err := project.LoadMaterials(o.materialsPath)
	if err != nil {
		return exitError, fmt.Errorf("loading materials: %w", err)
	}
	lib, err := loadTools(o.toolsPath, logger)
	if err != nil {
		return exitError, err
	}

	didSomething := false
	if o.mergeTools != "" {
		if lib, err = mergeTools(o, lib, logger); err != nil {
			return exitError, err
		}
		didSomething = true
	}
	if o.backupPath != "" {
		if err := project.ExportAllData(o.backupPath, cfg, lib, customMaterials(materials)); err != nil {
			return exitError, err
		}
		logger.Info("backup written", "path", o.backupPath, "tools", len(lib.Tools))
		didSomething = true
	}

	job, ok, err := loadJob(o, logger)
	if err != nil {
		return exitError, err
	}
	if !ok {
		if o.verifyPath != "" {
			return exitError, errors.New("-verify needs -job or -dxf for the stock bounds")
		}
		if o.labelsPath != "" {
			if err := export.ExportToolLabels(o.labelsPath, export.LibraryLabels(lib)); err != nil {
				return exitError, fmt.Errorf("writing labels: %w", err)
			}
			logger.Info("labels written", "path", o.labelsPath, "tools", len(lib.Tools))
			didSomething = true
		}
		if !didSomething {
			return exitError, errNothingToDo
		}
		return exitOK, nil
	}

	if o.controller != "" {
		c, err := model.ParseControllerType(o.controller)
		if err != nil {
			return exitError, err
		}
		job.Controller = c
	}
	if o.material != "" {
		job.Material = o.material
	}
	if o.saveJob != "" {
		if err := project.SaveJob(o.saveJob, job); err != nil {
			return exitError, err
		}
		logger.Info("job saved", "path", o.saveJob)
	}

	planner := engine.NewPlanner(lib, materials, cfg)
	if o.verifyPath != "" {
		return verify(o, planner, job, logger)
	}
	return plan(o, planner, job, stdout, stderr, logger)
}

func plan(o options, planner *engine.Planner, job model.Job, stdout, stderr io.Writer, logger *slog.Logger) (int, error) {
	res, err := planner.Plan(job)
	if err != nil {
		return exitError, err
	}
	for _, w := range res.Warnings {
		logger.Warn(w)
	}
	for _, e := range res.Errors {
		logger.Error(e)
	}

	if o.compare {
		printComparisons(stderr, planner, res)
	}

	if o.outPath == "" || o.outPath == "-" {
		if _, err := io.WriteString(stdout, res.Program.String()); err != nil {
			return exitError, err
		}
	} else {
		if err := os.WriteFile(o.outPath, []byte(res.Program.String()), 0644); err != nil {
			return exitError, fmt.Errorf("writing program: %w", err)
		}
	}

	if o.pdfPath != "" {
		if err := export.ExportSetupSheet(o.pdfPath, res); err != nil {
			return exitError, fmt.Errorf("writing setup sheet: %w", err)
		}
	}
	if o.labelsPath != "" {
		if err := export.ExportToolLabels(o.labelsPath, export.CollectToolLabels(res)); err != nil {
			return exitError, fmt.Errorf("writing labels: %w", err)
		}
	}

	logger.Info("job planned",
		"job", res.Job.Name,
		"operations", len(res.Operations),
		"lines", res.Program.LineCount,
		"minutes", fmt.Sprintf("%.1f", res.Program.EstimatedTime),
		"safe", res.Safe,
	)
	if !res.Safe {
		logger.Warn("collision check failed")
		if o.strict {
			return exitUnsafe, nil
		}
	}
	return exitOK, nil
}

func verify(o options, planner *engine.Planner, job model.Job, logger *slog.Logger) (int, error) {
	planner.Config.ApplyToJob(&job)
	if job.Stock.IsZero() {
		return exitError, errors.New("-verify needs stock bounds in the job")
	}

	ref := o.verifyTool
	if ref == "" && len(job.Operations) > 0 {
		ref = job.Operations[0].ToolID
	}
	tool, ok := planner.Tools.Resolve(ref)
	if !ok {
		return exitError, fmt.Errorf("%w %q", engine.ErrUnknownTool, ref)
	}

	data, err := os.ReadFile(o.verifyPath)
	if err != nil {
		return exitError, fmt.Errorf("reading program: %w", err)
	}
	tp, check := planner.VerifyProgram(string(data), job.Stock, tool, job.ZSafe)
	for _, w := range gcode.FormatCollisionWarnings(filepath.Base(o.verifyPath), check) {
		logger.Warn(w)
	}
	logger.Info("program checked",
		"path", o.verifyPath,
		"moves", len(tp.Moves),
		"minutes", fmt.Sprintf("%.1f", tp.Stats.EstimatedTime),
		"safe", check.Safe,
	)
	if !check.Safe && o.strict {
		return exitUnsafe, nil
	}
	return exitOK, nil
}

// loadTools reads a JSON tool library or imports a CSV/Excel tool sheet.
func loadTools(path string, logger *slog.Logger) (model.ToolLibrary, error) {
	var res importer.ImportResult
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		res = importer.ImportToolsCSV(path)
	case ".xlsx", ".xlsm":
		res = importer.ImportToolsExcel(path)
	default:
		lib, err := project.LoadToolLibrary(path)
		if err != nil {
			return model.ToolLibrary{}, fmt.Errorf("loading tools: %w", err)
		}
		return lib, nil
	}

	for _, w := range res.Warnings {
		logger.Warn(w, "file", filepath.Base(path))
	}
	for _, e := range res.Errors {
		logger.Error(e, "file", filepath.Base(path))
	}
	if len(res.Tools) == 0 {
		return model.ToolLibrary{}, fmt.Errorf("no tools imported from %s", path)
	}
	return res.ToolLibrary(), nil
}

func mergeTools(o options, lib model.ToolLibrary, logger *slog.Logger) (model.ToolLibrary, error) {
	if strings.ToLower(filepath.Ext(o.toolsPath)) != ".json" {
		return lib, errors.New("-merge-tools needs a .json -tools library to save into")
	}
	before := len(lib.Tools)
	merged, err := project.ImportToolLibrary(o.mergeTools, lib)
	if err != nil {
		return lib, fmt.Errorf("merging tools: %w", err)
	}
	if err := project.SaveToolLibrary(o.toolsPath, merged); err != nil {
		return lib, err
	}
	logger.Info("tools merged", "added", len(merged.Tools)-before, "total", len(merged.Tools))
	return merged, nil
}

// loadJob returns the job named by -job or built from -dxf, and whether
// either was given.
func loadJob(o options, logger *slog.Logger) (model.Job, bool, error) {
	switch {
	case o.jobPath != "":
		job, err := project.LoadJob(o.jobPath)
		return job, err == nil, err
	case o.dxfPath != "":
		job, err := jobFromDXF(o, logger)
		return job, err == nil, err
	}
	return model.Job{}, false, nil
}

// jobFromDXF builds a job from the features of a drawing. The stock is the
// bounding box of the outer outline (or of the holes), as thick as the cut.
func jobFromDXF(o options, logger *slog.Logger) (model.Job, error) {
	res := importer.ImportDXF(o.dxfPath, importer.DXFOptions{Normalize: o.normalize})
	for _, w := range res.Warnings {
		logger.Warn(w, "file", filepath.Base(o.dxfPath))
	}
	if len(res.Errors) > 0 {
		return model.Job{}, fmt.Errorf("importing %s: %s", o.dxfPath, strings.Join(res.Errors, "; "))
	}

	ops := res.Operations(importer.FeatureOptions{
		MillToolID:  o.millTool,
		DrillToolID: o.drillTool,
		Depth:       o.depth,
		StepDown:    o.stepDown,
		PeckDepth:   o.peckDepth,
	})
	if len(ops) == 0 {
		return model.Job{}, fmt.Errorf("no operations could be built from %s", o.dxfPath)
	}

	name := strings.TrimSuffix(filepath.Base(o.dxfPath), filepath.Ext(o.dxfPath))
	job := model.NewJob(name)
	job.Operations = ops

	var extent model.Outline
	if len(res.Boundaries) > 0 {
		extent = res.Boundaries[0]
	} else {
		extent = model.Outline(res.Holes)
	}
	lo, hi := extent.BoundingBox()
	job.Stock = model.NewStockBounds(lo.X, lo.Y, -o.depth, hi.X, hi.Y, 0)

	logger.Debug("job built from drawing",
		"boundaries", len(res.Boundaries),
		"holes", len(res.Holes),
		"operations", len(ops),
	)
	return job, nil
}

// customMaterials returns the rows of table that differ from the built-in table.
func customMaterials(table model.MaterialTable) model.MaterialTable {
	var custom model.MaterialTable
	for _, m := range table {
		if d, ok := model.DefaultMaterials.Lookup(m.Name); !ok || d != m {
			custom = append(custom, m)
		}
	}
	return custom
}

func restore(o options, logger *slog.Logger) error {
	if strings.ToLower(filepath.Ext(o.toolsPath)) != ".json" {
		return errors.New("-restore needs a .json -tools library to write")
	}
	backup, err := project.ImportAllData(o.restorePath)
	if err != nil {
		return err
	}
	if err := project.SaveAppConfig(o.configPath, backup.Config); err != nil {
		return err
	}
	if err := project.SaveToolLibrary(o.toolsPath, backup.Tools); err != nil {
		return err
	}
	if len(backup.Materials) > 0 {
		if err := project.SaveMaterials(o.materialsPath, backup.Materials); err != nil {
			return err
		}
	}
	logger.Info("backup restored",
		"created", backup.CreatedAt,
		"tools", len(backup.Tools.Tools),
		"materials", len(backup.Materials),
	)
	return nil
}

func printComparisons(w io.Writer, planner *engine.Planner, res engine.JobResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, r := range res.Operations {
		comparisons := planner.ComparePocket(res, r)
		if len(comparisons) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s (%s)\n", r.Operation.Name, r.Tool.Describe())
		fmt.Fprintln(tw, "SCENARIO\tSTEPOVER\tENGAGE\tSCALLOP\tTHIN\tFEED\tLOOPS\tCUT MM\tMIN")
		for _, c := range comparisons {
			fmt.Fprintf(tw, "%s\t%.3f\t%.0f\t%.4f\t%.2f\t%.0f\t%d\t%.0f\t%.1f\n",
				c.Scenario.Name, c.Scenario.Stepover, c.EngagementAngle, c.ScallopHeight,
				c.ThinningFactor, c.Feed, c.Loops, c.Stats.CuttingDistance, c.Stats.EstimatedTime)
		}
	}
}
