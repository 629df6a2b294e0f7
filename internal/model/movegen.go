package model

// Generate appends the pseudo-legal moves of a piece of the given kind standing on
// from. Pinned pieces only get moves along their pin line; king destinations are
// already checked for safety.
func Generate(kind PieceType, from Square, b *Board, t Threats, moves []Move) []Move {
	switch kind {
	case Pawn:
		return pawnMoves(from, b, t, moves)
	case Knight:
		return knightMoves(from, b, t, moves)
	case Bishop:
		return slidingMoves(from, b, t, bishopDirs, moves)
	case Rook:
		return slidingMoves(from, b, t, rookDirs, moves)
	case Queen:
		// both halves read the same pin record
		moves = slidingMoves(from, b, t, rookDirs, moves)
		return slidingMoves(from, b, t, bishopDirs, moves)
	case King:
		return kingMoves(from, b, moves)
	case NoPieceType:
		return moves
	}
	return moves
}

// alongPin reports whether a piece may move in direction dir given its pin state.
func alongPin(pin Direction, pinned bool, dir Direction) bool {
	return !pinned || dir == pin || dir == pin.Neg()
}

func pawnMoves(from Square, b *Board, t Threats, moves []Move) []Move {
	us := b.Get(from).Color
	pin, pinned := t.PinDirection(from)

	dir := Direction{Row: us.Forward()}
	one := from.Add(dir, 1)
	if boundaryCheck(one) && b.Get(one).IsEmpty() && alongPin(pin, pinned, dir) {
		moves = append(moves, NewMove(from, one, b))
		two := from.Add(dir, 2)
		if from.Row == us.pawnStartRow() && b.Get(two).IsEmpty() {
			moves = append(moves, NewMove(from, two, b))
		}
	}

	for _, col := range []int{-1, 1} {
		capture := Direction{Row: us.Forward(), Col: col}
		target := from.Add(capture, 1)
		if boundaryCheck(target) && b.Get(target).Is(us.Other()) && alongPin(pin, pinned, capture) {
			moves = append(moves, NewMove(from, target, b))
		}
	}
	return moves
}

func slidingMoves(from Square, b *Board, t Threats, dirs []Direction, moves []Move) []Move {
	us := b.Get(from).Color
	pin, pinned := t.PinDirection(from)

	for _, dir := range dirs {
		if !alongPin(pin, pinned, dir) {
			continue
		}
		for i := 1; i < 8; i++ {
			target := from.Add(dir, i)
			if !boundaryCheck(target) {
				break
			}
			piece := b.Get(target)
			if piece.IsEmpty() {
				moves = append(moves, NewMove(from, target, b))
				continue
			}
			if piece.Color != us {
				moves = append(moves, NewMove(from, target, b))
			}
			break
		}
	}
	return moves
}

// knightMoves generates nothing for a pinned knight: no knight jump stays on a line.
func knightMoves(from Square, b *Board, t Threats, moves []Move) []Move {
	if _, pinned := t.PinDirection(from); pinned {
		return moves
	}
	us := b.Get(from).Color
	for _, dir := range knightDirs {
		target := from.Add(dir, 1)
		if boundaryCheck(target) && !b.Get(target).Is(us) {
			moves = append(moves, NewMove(from, target, b))
		}
	}
	return moves
}

func kingMoves(from Square, b *Board, moves []Move) []Move {
	us := b.Get(from).Color
	for _, dir := range kingDirs {
		target := from.Add(dir, 1)
		if !boundaryCheck(target) || b.Get(target).Is(us) {
			continue
		}
		if !SquareAttacked(b, target, us, from) {
			moves = append(moves, NewMove(from, target, b))
		}
	}
	return moves
}
