package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSquare = errors.New("invalid square")

// Square is a (row, column) pair. Row 0 is black's back rank, row 7 white's.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

var NoSquare = Square{Row: -1, Col: -1}

type Direction struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (d Direction) Neg() Direction {
	return Direction{Row: -d.Row, Col: -d.Col}
}

var (
	rookDirs   = []Direction{{Row: -1, Col: 0}, {Row: 0, Col: -1}, {Row: 1, Col: 0}, {Row: 0, Col: 1}}
	bishopDirs = []Direction{{Row: -1, Col: -1}, {Row: -1, Col: 1}, {Row: 1, Col: -1}, {Row: 1, Col: 1}}
	knightDirs = []Direction{
		{Row: -2, Col: -1}, {Row: -2, Col: 1}, {Row: -1, Col: -2}, {Row: -1, Col: 2},
		{Row: 1, Col: -2}, {Row: 1, Col: 2}, {Row: 2, Col: -1}, {Row: 2, Col: 1},
	}
	kingDirs = append(append([]Direction{}, rookDirs...), bishopDirs...)
)

func (s Square) Add(d Direction, n int) Square {
	return Square{Row: s.Row + d.Row*n, Col: s.Col + d.Col*n}
}

func (s Square) Valid() bool {
	return boundaryCheck(s)
}

func boundaryCheck(s Square) bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) getFileNotation() string {
	return string(rune('a' + s.Col))
}

func (s Square) getRankNotation() string {
	return string(rune('8' - s.Row))
}

// String returns the coordinate name, e.g. "e2" for row 6, column 4.
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return s.getFileNotation() + s.getRankNotation()
}

func ParseSquare(name string) (Square, error) {
	if len(name) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	file, rank := name[0], name[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	return Square{Row: int('8' - rank), Col: int(file - 'a')}, nil
}

// Board is the 8x8 grid of square contents, indexed [row][col].
type Board [8][8]Piece

func (b *Board) Get(s Square) Piece {
	return b[s.Row][s.Col]
}

func (b *Board) Set(s Square, p Piece) {
	b[s.Row][s.Col] = p
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard starting layout.
func NewBoard() Board {
	var b Board
	for col, t := range backRank {
		b[0][col] = Piece{Type: t, Color: Black}
		b[1][col] = Piece{Type: Pawn, Color: Black}
		b[6][col] = Piece{Type: Pawn, Color: White}
		b[7][col] = Piece{Type: t, Color: White}
	}
	return b
}

// String draws the board with black on top, one rank per line.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.IsEmpty() {
				sb.WriteByte('.')
			} else {
				sb.WriteByte(p.fenChar())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
