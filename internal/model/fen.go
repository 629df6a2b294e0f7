package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"

var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN builds a position from a FEN string. Castling rights, the en passant square
// and the half-move clock are accepted but ignored since those rules are not modelled.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 fields, got %d", ErrInvalidFEN, len(parts))
	}

	pos := &Position{
		moveLog:  make([]Move, 0),
		fullMove: 1,
		kings:    [2]Square{NoSquare, NoSquare},
	}

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.sideToMove = White
	case "b":
		pos.sideToMove = Black
	default:
		return nil, fmt.Errorf("%w: invalid side to move %q", ErrInvalidFEN, parts[1])
	}

	// the side that just moved cannot have left its king attacked
	them := pos.sideToMove.Other()
	if DetectThreats(&pos.board, pos.kings[them], them).InCheck {
		return nil, fmt.Errorf("%w: %s king is in check with %s to move", ErrInvalidFEN, them, pos.sideToMove)
	}

	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, fmt.Errorf("%w: invalid full-move number %q", ErrInvalidFEN, parts[5])
		}
		pos.fullMove = fmn
	}

	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for row, rankStr := range ranks {
		col := 0
		for i := 0; i < len(rankStr); i++ {
			c := rankStr[i]
			if col > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, 8-row)
			}
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			piece, ok := pieceFromFENChar(c)
			if !ok {
				return fmt.Errorf("%w: invalid piece character %q", ErrInvalidFEN, c)
			}
			sq := Square{Row: row, Col: col}
			if piece.Type == King {
				if pos.kings[piece.Color] != NoSquare {
					return fmt.Errorf("%w: more than one %s king", ErrInvalidFEN, piece.Color)
				}
				pos.kings[piece.Color] = sq
			}
			pos.board.Set(sq, piece)
			col++
		}
		if col != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, 8-row, col)
		}
	}

	for _, c := range []Color{White, Black} {
		if pos.kings[c] == NoSquare {
			return fmt.Errorf("%w: missing %s king", ErrInvalidFEN, c)
		}
	}
	return nil
}

// FEN writes the position. Castling and en passant fields are always "-".
func (p *Position) FEN() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			piece := p.board[row][col]
			if piece.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.fenChar())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if p.sideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s - - 0 %d", side, p.fullMove)
	return sb.String()
}
