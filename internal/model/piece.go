package model

import "fmt"

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Forward is the row delta of a pawn advance. White starts on row 6 and moves up the array.
func (c Color) Forward() int {
	if c == White {
		return -1
	}
	return 1
}

func (c Color) pawnStartRow() int {
	if c == White {
		return 6
	}
	return 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white":
		*c = White
	case "black":
		*c = Black
	default:
		return fmt.Errorf("unknown color %q", text)
	}
	return nil
}

type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (p PieceType) String() string {
	if int(p) < len(pieceTypeNames) {
		return pieceTypeNames[p]
	}
	return fmt.Sprintf("PieceType(%d)", p)
}

func (p PieceType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PieceType) UnmarshalText(text []byte) error {
	for i, name := range pieceTypeNames {
		if name == string(text) {
			*p = PieceType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown piece type %q", text)
}

// getPieceNotation returns the FEN letter for the piece type, upper case.
func (p PieceType) getPieceNotation() byte {
	switch p {
	case Pawn:
		return 'P'
	case Knight:
		return 'N'
	case Bishop:
		return 'B'
	case Rook:
		return 'R'
	case Queen:
		return 'Q'
	case King:
		return 'K'
	}
	return 0
}

// Piece is the content of a square. The zero value is an empty square.
type Piece struct {
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
}

var Empty = Piece{}

func (p Piece) IsEmpty() bool {
	return p.Type == NoPieceType
}

// Is reports whether the square holds a piece of color c.
func (p Piece) Is(c Color) bool {
	return !p.IsEmpty() && p.Color == c
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "--"
	}
	return fmt.Sprintf("%s %s", p.Color, p.Type)
}

// fenChar returns the FEN letter, upper case for white.
func (p Piece) fenChar() byte {
	ch := p.Type.getPieceNotation()
	if p.Color == Black {
		ch += 'a' - 'A'
	}
	return ch
}

func pieceFromFENChar(ch byte) (Piece, bool) {
	color := White
	if ch >= 'a' && ch <= 'z' {
		color = Black
		ch -= 'a' - 'A'
	}
	for t := Pawn; t <= King; t++ {
		if t.getPieceNotation() == ch {
			return Piece{Type: t, Color: color}, true
		}
	}
	return Empty, false
}
