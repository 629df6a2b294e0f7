package model

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

var ErrIllegalMove = errors.New("illegal move")

// Position is a board, the side to move and the history needed to undo. It does no
// locking; owners serialize access.
type Position struct {
	board      Board
	sideToMove Color
	kings      [2]Square
	moveLog    []Move
	fullMove   int
}

func NewPosition() *Position {
	return &Position{
		board:      NewBoard(),
		sideToMove: White,
		kings:      [2]Square{White: {Row: 7, Col: 4}, Black: {Row: 0, Col: 4}},
		moveLog:    make([]Move, 0),
		fullMove:   1,
	}
}

// Board returns a copy of the grid.
func (p *Position) Board() Board {
	return p.board
}

func (p *Position) SideToMove() Color {
	return p.sideToMove
}

func (p *Position) KingSquare(c Color) Square {
	return p.kings[c]
}

func (p *Position) FullMoveNumber() int {
	return p.fullMove
}

// History returns the applied moves, oldest first.
func (p *Position) History() []Move {
	return slices.Clone(p.moveLog)
}

func (p *Position) LastMove() (Move, bool) {
	if len(p.moveLog) == 0 {
		return Move{}, false
	}
	return p.moveLog[len(p.moveLog)-1], true
}

// NewMove builds a move from the current board contents. It does not check legality.
func (p *Position) NewMove(from, to Square) Move {
	return NewMove(from, to, &p.board)
}

// Apply plays m without validating it; callers pass moves from ValidMoves.
func (p *Position) Apply(m Move) {
	p.board.Set(m.To, m.Moved)
	p.board.Set(m.From, Empty)
	p.moveLog = append(p.moveLog, m)
	if m.Moved.Type == King {
		p.kings[m.Moved.Color] = m.To
	}
	if p.sideToMove == Black {
		p.fullMove++
	}
	p.sideToMove = p.sideToMove.Other()
}

// Undo reverts the last applied move. It reports false when there is nothing to undo.
func (p *Position) Undo() (Move, bool) {
	if len(p.moveLog) == 0 {
		return Move{}, false
	}
	m := p.moveLog[len(p.moveLog)-1]
	p.moveLog = p.moveLog[:len(p.moveLog)-1]

	p.board.Set(m.From, m.Moved)
	p.board.Set(m.To, m.Captured)
	p.sideToMove = p.sideToMove.Other()
	if p.sideToMove == Black {
		p.fullMove--
	}
	if m.Moved.Type == King {
		p.kings[m.Moved.Color] = m.From
	}
	return m, true
}

// Threats scans from the king of the side to move.
func (p *Position) Threats() Threats {
	return DetectThreats(&p.board, p.kings[p.sideToMove], p.sideToMove)
}

func (p *Position) InCheck() bool {
	return p.Threats().InCheck
}

// ValidMoves returns the legal moves for the side to move. Pins and checks are
// recomputed on every call.
func (p *Position) ValidMoves() []Move {
	us := p.sideToMove
	king := p.kings[us]
	threats := DetectThreats(&p.board, king, us)

	switch len(threats.Checks) {
	case 0:
		return p.allMoves(threats)
	case 1:
		moves := p.allMoves(threats)
		relief := reliefSquares(&p.board, king, threats.Checks[0])
		legal := moves[:0]
		for _, m := range moves {
			if m.Moved.Type == King || slices.Contains(relief, m.To) {
				legal = append(legal, m)
			}
		}
		return legal
	default:
		return Generate(King, king, &p.board, threats, make([]Move, 0, 8))
	}
}

// ValidMovesFrom returns the legal moves of the piece on from.
func (p *Position) ValidMovesFrom(from Square) []Move {
	moves := make([]Move, 0)
	for _, m := range p.ValidMoves() {
		if m.From == from {
			moves = append(moves, m)
		}
	}
	return moves
}

// FindMove looks up the legal move for a square pair.
func (p *Position) FindMove(from, to Square) (Move, error) {
	moves := p.ValidMoves()
	i := slices.IndexFunc(moves, func(m Move) bool {
		return m.From == from && m.To == to
	})
	if i < 0 {
		return Move{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	return moves[i], nil
}

// ParseMove resolves coordinate notation such as "e2e4" against the legal moves.
func (p *Position) ParseMove(notation string) (Move, error) {
	if len(notation) != 4 {
		return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, notation)
	}
	from, err := ParseSquare(notation[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(notation[2:])
	if err != nil {
		return Move{}, err
	}
	return p.FindMove(from, to)
}

func (p *Position) allMoves(threats Threats) []Move {
	us := p.sideToMove
	moves := make([]Move, 0, 64)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := p.board[row][col]
			if piece.Is(us) {
				moves = Generate(piece.Type, Square{Row: row, Col: col}, &p.board, threats, moves)
			}
		}
	}
	return moves
}

// reliefSquares lists the squares a non-king move must land on to answer a single
// check: the knight itself, or every square from the king up to and including a
// line checker.
func reliefSquares(b *Board, king Square, check Check) []Square {
	if b.Get(check.Square).Type == Knight {
		return []Square{check.Square}
	}
	squares := make([]Square, 0, 7)
	for i := 1; i < 8; i++ {
		s := king.Add(check.Dir, i)
		squares = append(squares, s)
		if s == check.Square {
			break
		}
	}
	return squares
}
