package gcode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/camkernel/internal/model"
	"github.com/piwi3910/camkernel/internal/toolpath"
)

// GCodeMove is one parsed motion or comment line.
type GCodeMove struct {
	Line     int // 1-based source line
	Type     toolpath.MoveType
	From     model.Point3D
	To       model.Point3D
	FeedRate float64
	Move     toolpath.Move // absolute words as they apply to this line
}

// IsRetract reports whether the move only raises Z.
func (m GCodeMove) IsRetract() bool {
	return m.Type != toolpath.MoveComment && m.To.Z > m.From.Z && m.From.X == m.To.X && m.From.Y == m.To.Y
}

var wordRe = regexp.MustCompile(`([A-Z])\s*([-+]?(?:\d+\.?\d*|\.\d+))`)

// ParseGCode reads a program back into moves. It tracks the modal motion
// mode (G0 to G3), absolute and incremental positioning (G90/G91) and the
// modal feed, starting from start. Lines without motion and moves in
// machine coordinates (G28, G53, M91, SUPA) are skipped. Parenthetical and semicolon comments become
// comment moves.
func ParseGCode(code string, start model.Point3D) []GCodeMove {
	var moves []GCodeMove

	pos := start
	feed := 0.0
	motion := 0
	incremental := false

	for n, raw := range strings.Split(code, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || line == "%" {
			continue
		}

		// Pull comments out before parsing words
		var comments []string
		if idx := strings.Index(line, ";"); idx >= 0 {
			comments = append(comments, strings.TrimSpace(line[idx+1:]))
			line = line[:idx]
		}
		for {
			open := strings.Index(line, "(")
			if open < 0 {
				break
			}
			end := strings.Index(line[open:], ")")
			if end < 0 {
				comments = append(comments, strings.TrimSpace(line[open+1:]))
				line = line[:open]
				break
			}
			comments = append(comments, strings.TrimSpace(line[open+1:open+end]))
			line = line[:open] + " " + line[open+end+1:]
		}
		for _, c := range comments {
			moves = append(moves, GCodeMove{
				Line: n + 1,
				Type: toolpath.MoveComment,
				From: pos,
				To:   pos,
				Move: toolpath.Comment(c),
			})
		}

		upper := strings.ToUpper(strings.TrimSpace(line))
		if upper == "" || upper[0] == 'O' {
			continue
		}

		var m toolpath.Move
		hasAxis := false
		skip := strings.Contains(upper, "SUPA")
		for _, w := range wordRe.FindAllStringSubmatch(upper, -1) {
			val, err := strconv.ParseFloat(w[2], 64)
			if err != nil {
				continue
			}
			switch w[1] {
			case "G":
				switch int(val) {
				case 0, 1, 2, 3:
					motion = int(val)
				case 90:
					incremental = false
				case 91:
					incremental = true
				case 28, 53:
					skip = true
				}
			case "X":
				m.X, hasAxis = toolpath.W(val), true
			case "Y":
				m.Y, hasAxis = toolpath.W(val), true
			case "Z":
				m.Z, hasAxis = toolpath.W(val), true
			case "I":
				m.I = toolpath.W(val)
			case "J":
				m.J = toolpath.W(val)
			case "R":
				m.R = toolpath.W(val)
			case "F":
				feed = val
				m.F = toolpath.W(val)
			case "M":
				if int(val) == 91 {
					skip = true
				}
			}
		}
		isArc := motion == 2 || motion == 3
		if skip || !(hasAxis || (isArc && (m.I.Set || m.J.Set))) {
			continue
		}

		if incremental {
			m.X = relative(m.X, pos.X)
			m.Y = relative(m.Y, pos.Y)
			m.Z = relative(m.Z, pos.Z)
		}
		m.Type = classify(motion, pos, m.Target(pos))
		if m.Type == toolpath.MoveRapid {
			m.F = toolpath.Word{}
		}
		to := m.Target(pos)
		moves = append(moves, GCodeMove{
			Line:     n + 1,
			Type:     m.Type,
			From:     pos,
			To:       to,
			FeedRate: feed,
			Move:     m,
		})
		pos = to
	}

	return moves
}

func relative(w toolpath.Word, base float64) toolpath.Word {
	if !w.Set {
		return w
	}
	return toolpath.W(base + w.Value)
}

// classify maps the modal motion code to a move type. A G1 that only lowers
// Z is a plunge.
func classify(motion int, from, to model.Point3D) toolpath.MoveType {
	switch motion {
	case 0:
		return toolpath.MoveRapid
	case 2:
		return toolpath.MoveArcCW
	case 3:
		return toolpath.MoveArcCCW
	}
	if to.Z < from.Z-0.001 && from.X == to.X && from.Y == to.Y {
		return toolpath.MovePlunge
	}
	return toolpath.MoveFeed
}

// ParsedToMoves extracts the toolpath moves from parsed lines, so an
// existing program can be measured and collision-checked.
func ParsedToMoves(parsed []GCodeMove) []toolpath.Move {
	moves := make([]toolpath.Move, 0, len(parsed))
	for _, p := range parsed {
		moves = append(moves, p.Move)
	}
	return moves
}
