package model

// Pin records an allied piece that may only move along Dir (pointing away from its
// king) or the opposite direction.
type Pin struct {
	Square Square    `json:"square"`
	Dir    Direction `json:"direction"`
}

// Check records a piece attacking the king. Dir points from the king towards the
// checker; for a knight it is the knight offset itself.
type Check struct {
	Square Square    `json:"square"`
	Dir    Direction `json:"direction"`
}

// Threats is the result of one scan from a king square. It is only valid for the
// board it was computed on.
type Threats struct {
	InCheck bool    `json:"inCheck"`
	Pins    []Pin   `json:"pins"`
	Checks  []Check `json:"checks"`
}

func (t Threats) PinDirection(s Square) (Direction, bool) {
	for _, pin := range t.Pins {
		if pin.Square == s {
			return pin.Dir, true
		}
	}
	return Direction{}, false
}

// DetectThreats finds the pieces checking the king of color us on square king, and
// the allied pieces pinned to it.
func DetectThreats(b *Board, king Square, us Color) Threats {
	return scanThreats(b, king, us, king)
}

// SquareAttacked reports whether a king of color us standing on sq would be in check.
// The vacated square is treated as empty, so a king stepping away from a slider along
// the same line is still seen as attacked.
func SquareAttacked(b *Board, sq Square, us Color, vacated Square) bool {
	return scanThreats(b, sq, us, vacated).InCheck
}

func scanThreats(b *Board, king Square, us Color, vacated Square) Threats {
	t := Threats{Pins: []Pin{}, Checks: []Check{}}
	them := us.Other()

	for j, dir := range kingDirs {
		orthogonal := j < 4
		possiblePin := NoSquare
		for i := 1; i < 8; i++ {
			target := king.Add(dir, i)
			if !boundaryCheck(target) {
				break
			}
			if target == vacated {
				continue
			}
			piece := b.Get(target)
			if piece.IsEmpty() {
				continue
			}
			if piece.Color == us {
				if possiblePin != NoSquare {
					// two allied pieces on the ray, nothing behind them matters
					break
				}
				possiblePin = target
				continue
			}
			if attacksAlong(piece.Type, orthogonal, i, dir, us) {
				if possiblePin == NoSquare {
					t.Checks = append(t.Checks, Check{Square: target, Dir: dir})
				} else {
					t.Pins = append(t.Pins, Pin{Square: possiblePin, Dir: dir})
				}
			}
			break
		}
	}

	for _, dir := range knightDirs {
		target := king.Add(dir, 1)
		if !boundaryCheck(target) || target == vacated {
			continue
		}
		if piece := b.Get(target); piece.Type == Knight && piece.Color == them {
			t.Checks = append(t.Checks, Check{Square: target, Dir: dir})
		}
	}

	t.InCheck = len(t.Checks) > 0
	return t
}

// attacksAlong reports whether an enemy piece found dist squares from the king along
// dir can attack it. A pawn attacks diagonally towards the defender's side, so it sits
// one row in the defender's pawn direction.
func attacksAlong(kind PieceType, orthogonal bool, dist int, dir Direction, defender Color) bool {
	switch kind {
	case Rook:
		return orthogonal
	case Bishop:
		return !orthogonal
	case Queen:
		return true
	case King:
		return dist == 1
	case Pawn:
		return dist == 1 && !orthogonal && dir.Row == defender.Forward()
	}
	return false
}
