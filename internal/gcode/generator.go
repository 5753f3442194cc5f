package gcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

// Block is one toolpath with the machine setup it runs under.
type Block struct {
	Label      string
	Toolpath   toolpath.Toolpath
	Tool       model.ToolSpec
	ToolNumber int
	SpindleRPM float64
	Coolant    model.CoolantMode
	WorkOffset string
}

// GCodeProgram is an assembled program.
type GCodeProgram struct {
	Lines         []string
	LineCount     int
	Controller    model.ControllerType
	EstimatedTime float64 // minutes, sum of the toolpath estimates
}

// String joins the program lines with a trailing newline.
func (p GCodeProgram) String() string {
	if len(p.Lines) == 0 {
		return ""
	}
	return strings.Join(p.Lines, "\n") + "\n"
}

// Generator assembles toolpaths into a complete program for one controller.
type Generator struct {
	ProgramNumber int
	profile       model.ControllerProfile
}

// New returns a generator for the controller dialect. Unknown controllers
// use the Fanuc profile.
func New(controller model.ControllerType, programNumber int) *Generator {
	return &Generator{
		ProgramNumber: programNumber,
		profile:       model.GetController(controller),
	}
}

// Profile returns the controller profile in use.
func (g *Generator) Profile() model.ControllerProfile {
	return g.profile
}

// Assemble writes the header, every block in order and the footer. Output
// depends only on the inputs, so identical jobs produce identical text.
func (g *Generator) Assemble(name string, blocks []Block) GCodeProgram {
	var lines []string
	lines = append(lines, g.header(name)...)

	coolantUsed := false
	var total, safeZ float64
	for i, b := range blocks {
		lines = append(lines, g.block(b)...)
		total += b.Toolpath.Stats.EstimatedTime
		if g.coolantCode(b.Coolant) != "" {
			coolantUsed = true
		}
		if i == 0 || b.Toolpath.ZSafe > safeZ {
			safeZ = b.Toolpath.ZSafe
		}
	}
	lines = append(lines, g.footer(coolantUsed, safeZ)...)

	return GCodeProgram{
		Lines:         lines,
		LineCount:     len(lines),
		Controller:    g.profile.Type,
		EstimatedTime: total,
	}
}

func (g *Generator) header(name string) []string {
	p := g.profile
	lines := []string{"%"}
	if p.ProgramStart != "" {
		lines = append(lines, model.Fill(p.ProgramStart, map[string]string{
			"N": fmt.Sprintf("%04d", g.ProgramNumber),
		}))
	}
	if name != "" {
		lines = append(lines, g.comment(name))
	}
	lines = append(lines, g.comment("CONTROLLER "+strings.ToUpper(string(p.Type))))
	return append(lines, p.StartCode...)
}

func (g *Generator) block(b Block) []string {
	p := g.profile
	tp := b.Toolpath
	tool := strconv.Itoa(b.ToolNumber)
	rpm := strconv.Itoa(int(b.SpindleRPM + 0.5))

	var lines []string
	label := b.Label
	if label == "" {
		label = string(tp.Operation)
	}
	lines = append(lines, g.comment(fmt.Sprintf("%s - T%s %s", label, tool, b.Tool.Describe())))
	if p.ToolChange != "" {
		lines = append(lines, model.Fill(p.ToolChange, map[string]string{"T": tool, "S": rpm}))
	}
	if p.SpindleStart != "" && b.SpindleRPM > 0 {
		lines = append(lines, model.Fill(p.SpindleStart, map[string]string{"S": rpm}))
	}
	if code := g.coolantCode(b.Coolant); code != "" {
		lines = append(lines, code)
	}
	if b.WorkOffset != "" {
		lines = append(lines, b.WorkOffset)
	}

	s := NewSerializer(p.DecimalPlaces)
	if p.ToolLength != "" {
		lines = append(lines, model.Fill(p.ToolLength, map[string]string{
			"H": tool,
			"Z": g.format(tp.ZSafe),
		}))
		if strings.Contains(p.ToolLength, "[Z]") {
			s.AssumeZ(tp.ZSafe)
		}
	}

	lines = append(lines, s.Serialize(tp.Moves)...)
	if line, ok := s.Line(toolpath.RapidZ(tp.ZSafe)); ok {
		lines = append(lines, line)
	}
	return lines
}

func (g *Generator) footer(coolantUsed bool, safeZ float64) []string {
	p := g.profile
	var lines []string
	if coolantUsed && p.CoolantStop != "" {
		lines = append(lines, p.CoolantStop)
	}
	if p.SpindleStop != "" {
		lines = append(lines, p.SpindleStop)
	}
	for _, h := range p.Home {
		lines = append(lines, model.Fill(h, map[string]string{"Z": g.format(safeZ)}))
	}
	lines = append(lines, p.EndCode...)
	return append(lines, "%")
}

func (g *Generator) coolantCode(mode model.CoolantMode) string {
	if mode == "" || mode == model.CoolantOff {
		return ""
	}
	return g.profile.Coolant[mode]
}

func (g *Generator) comment(text string) string {
	return commentLine(text)
}

// format formats a coordinate according to the profile's decimal places.
func (g *Generator) format(v float64) string {
	return NewSerializer(g.profile.DecimalPlaces).format(v)
}
