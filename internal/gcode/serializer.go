package gcode

import (
	"fmt"
	"strings"

	"github.com/piwi3910/camkernel/internal/toolpath"
)

// Serializer turns moves into G-code lines. It remembers the last X, Y, Z
// and F it wrote and leaves out any word whose formatted value has not
// changed. Arc centre words are never held over.
type Serializer struct {
	DecimalPlaces int

	x, y, z, f string // last emitted words, empty when unknown
}

// NewSerializer creates a serializer formatting numbers to decimals places.
func NewSerializer(decimals int) *Serializer {
	return &Serializer{DecimalPlaces: decimals}
}

// Reset forgets the modal state, so the next move writes every word it carries.
func (s *Serializer) Reset() {
	s.x, s.y, s.z, s.f = "", "", "", ""
}

// AssumeZ records that the machine is at z without writing a line, as after
// a tool-length offset block that moves Z itself.
func (s *Serializer) AssumeZ(z float64) {
	s.z = s.format(z)
}

// Serialize writes moves in order, dropping linear moves that change nothing.
func (s *Serializer) Serialize(moves []toolpath.Move) []string {
	var lines []string
	for _, m := range moves {
		if line, ok := s.Line(m); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// Line formats a single move. It reports false when a linear move would
// repeat the current position and feed.
func (s *Serializer) Line(m toolpath.Move) (string, bool) {
	if m.Type == toolpath.MoveComment {
		return commentLine(m.Text), true
	}

	words := []string{motionWord(m.Type)}
	changed := false
	axis := func(letter string, w toolpath.Word, last *string) {
		if !w.Set {
			return
		}
		v := s.format(w.Value)
		if v == *last {
			return
		}
		*last = v
		words = append(words, letter+v)
		changed = true
	}
	axis("X", m.X, &s.x)
	axis("Y", m.Y, &s.y)
	axis("Z", m.Z, &s.z)

	if m.Type.IsArc() {
		switch {
		case m.I.Set || m.J.Set:
			words = append(words, "I"+s.format(m.I.Or(0)), "J"+s.format(m.J.Or(0)))
		case m.R.Set:
			words = append(words, "R"+s.format(m.R.Value))
		}
		changed = true
	}

	if m.Type != toolpath.MoveRapid && m.F.Set {
		if f := s.format(m.F.Value); f != s.f {
			s.f = f
			words = append(words, "F"+f)
			changed = true
		}
	}
	if !changed {
		return "", false
	}
	return strings.Join(words, " "), true
}

func motionWord(t toolpath.MoveType) string {
	switch t {
	case toolpath.MoveRapid:
		return "G0"
	case toolpath.MoveArcCW:
		return "G2"
	case toolpath.MoveArcCCW:
		return "G3"
	default:
		return "G1"
	}
}

// format formats a coordinate to the configured decimal places. Negative
// zero is written as zero so output does not depend on rounding sign.
func (s *Serializer) format(v float64) string {
	out := fmt.Sprintf("%.*f", s.DecimalPlaces, v)
	if strings.Trim(out, "-0.") == "" {
		out = strings.TrimPrefix(out, "-")
	}
	return out
}

var commentEscaper = strings.NewReplacer("(", "[", ")", "]")

// commentLine wraps text in parentheses. Nested parentheses would close the
// comment early on most controls, so they become brackets.
func commentLine(text string) string {
	return "(" + commentEscaper.Replace(text) + ")"
}
