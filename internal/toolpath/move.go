// Package toolpath defines the typed move sequence shared by the serializer
// and the collision checker, and the generators that build it.
package toolpath

import (
	"fmt"

	"github.com/piwi3910/camkernel/internal/model"
)

// MoveType tags a toolpath move.
type MoveType int

const (
	MoveRapid     MoveType = iota // G0 positioning, no cutting
	MoveFeed                      // G1 linear cut
	MoveArcCW                     // G2
	MoveArcCCW                    // G3
	MoveHelixRamp                 // G1 with simultaneous XY travel and Z descent
	MovePlunge                    // G1 straight down
	MoveComment                   // free text, no motion
)

func (t MoveType) String() string {
	switch t {
	case MoveRapid:
		return "rapid"
	case MoveFeed:
		return "feed"
	case MoveArcCW:
		return "arc_cw"
	case MoveArcCCW:
		return "arc_ccw"
	case MoveHelixRamp:
		return "helix_ramp"
	case MovePlunge:
		return "plunge"
	case MoveComment:
		return "comment"
	default:
		return fmt.Sprintf("MoveType(%d)", int(t))
	}
}

// IsArc reports whether the move is a circular interpolation.
func (t MoveType) IsArc() bool {
	return t == MoveArcCW || t == MoveArcCCW
}

// Word is an optional numeric word. The zero Word is absent, meaning the
// axis or feed keeps its previous (modal) value.
type Word struct {
	Value float64
	Set   bool
}

// W returns a present word.
func W(v float64) Word {
	return Word{Value: v, Set: true}
}

// Or returns the word's value, or fallback when absent.
func (w Word) Or(fallback float64) float64 {
	if w.Set {
		return w.Value
	}
	return fallback
}

func feedWord(f float64) Word {
	if f > 0 {
		return W(f)
	}
	return Word{}
}

// Move is one entry of a toolpath. Comment moves carry only Text.
type Move struct {
	Type MoveType
	X    Word
	Y    Word
	Z    Word
	F    Word
	I    Word // arc center offset from the start point
	J    Word
	R    Word // arc radius, used when I/J are absent
	Text string
}

// IsMotion reports whether the move moves the tool.
func (m Move) IsMotion() bool {
	return m.Type != MoveComment
}

// IsCutting reports whether the move is a motion at feed rate.
func (m Move) IsCutting() bool {
	return m.IsMotion() && m.Type != MoveRapid
}

// Rapid positions all three axes at rapid rate.
func Rapid(x, y, z float64) Move {
	return Move{Type: MoveRapid, X: W(x), Y: W(y), Z: W(z)}
}

// RapidXY positions in the plane at rapid rate.
func RapidXY(x, y float64) Move {
	return Move{Type: MoveRapid, X: W(x), Y: W(y)}
}

// RapidZ moves the Z axis at rapid rate.
func RapidZ(z float64) Move {
	return Move{Type: MoveRapid, Z: W(z)}
}

// Feed cuts a straight line to (x, y, z).
func Feed(x, y, z, f float64) Move {
	return Move{Type: MoveFeed, X: W(x), Y: W(y), Z: W(z), F: feedWord(f)}
}

// FeedXY cuts a straight line in the plane.
func FeedXY(x, y, f float64) Move {
	return Move{Type: MoveFeed, X: W(x), Y: W(y), F: feedWord(f)}
}

// FeedZ moves the Z axis at feed rate.
func FeedZ(z, f float64) Move {
	return Move{Type: MoveFeed, Z: W(z), F: feedWord(f)}
}

// Plunge feeds straight down to z.
func Plunge(z, f float64) Move {
	return Move{Type: MovePlunge, Z: W(z), F: feedWord(f)}
}

// Ramp cuts a straight descending line to (x, y, z).
func Ramp(x, y, z, f float64) Move {
	return Move{Type: MoveHelixRamp, X: W(x), Y: W(y), Z: W(z), F: feedWord(f)}
}

// Arc cuts a planar arc ending at (x, y) with center offset (i, j).
func Arc(cw bool, x, y, i, j, f float64) Move {
	return Move{Type: arcType(cw), X: W(x), Y: W(y), I: W(i), J: W(j), F: feedWord(f)}
}

// HelixArc cuts an arc while moving Z to z.
func HelixArc(cw bool, x, y, z, i, j, f float64) Move {
	return Move{Type: arcType(cw), X: W(x), Y: W(y), Z: W(z), I: W(i), J: W(j), F: feedWord(f)}
}

// ArcR cuts an arc given by radius; a negative radius selects the long way round.
func ArcR(cw bool, x, y, r, f float64) Move {
	return Move{Type: arcType(cw), X: W(x), Y: W(y), R: W(r), F: feedWord(f)}
}

// Comment carries free text. It is never a motion.
func Comment(text string) Move {
	return Move{Type: MoveComment, Text: text}
}

func arcType(cw bool) MoveType {
	if cw {
		return MoveArcCW
	}
	return MoveArcCCW
}

// Target resolves the end point of m when starting from p.
func (m Move) Target(p model.Point3D) model.Point3D {
	if !m.IsMotion() {
		return p
	}
	return model.Point3D{X: m.X.Or(p.X), Y: m.Y.Or(p.Y), Z: m.Z.Or(p.Z)}
}
