package model

import (
	"errors"
	"testing"

	"golang.org/x/exp/slices"
)

// perft counts the leaf nodes of the legal move tree at the given depth.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.ValidMoves()
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	for _, m := range moves {
		p.Apply(m)
		nodes += perft(p, depth-1)
		p.Undo()
	}
	return nodes
}

// No castling, en passant or promotion is reachable within these depths.
func TestPerftStartingPosition(t *testing.T) {
	pos := NewPosition()

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
	}

	for _, tc := range tests {
		if testing.Short() && tc.depth > 3 {
			continue
		}
		got := perft(pos, tc.depth)
		if got != tc.expected {
			t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
	}
	if pos.FEN() != StartFEN {
		t.Errorf("position not restored after perft: %s", pos.FEN())
	}
}

func TestPerftEndgame(t *testing.T) {
	pos := mustFEN(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1")
	if got := perft(pos, 1); got != 14 {
		t.Errorf("perft(1) = %d, want 14", got)
	}
	if got := perft(pos, 2); got != 191 {
		t.Errorf("perft(2) = %d, want 191", got)
	}
}

func TestApplyAndUndoPawnPush(t *testing.T) {
	pos := NewPosition()
	e2, e4 := Square{Row: 6, Col: 4}, Square{Row: 4, Col: 4}

	m, err := pos.FindMove(e2, e4)
	if err != nil {
		t.Fatalf("FindMove(e2, e4): %v", err)
	}
	if m.Algebraic() != "e2e4" {
		t.Errorf("notation = %q, want e2e4", m.Algebraic())
	}

	pos.Apply(m)
	b := pos.Board()
	if !b.Get(e2).IsEmpty() || b.Get(e4) != (Piece{Type: Pawn, Color: White}) {
		t.Errorf("pawn not moved:\n%s", b.String())
	}
	if pos.SideToMove() != Black {
		t.Errorf("side to move = %v, want black", pos.SideToMove())
	}
	if pos.KingSquare(White) != (Square{Row: 7, Col: 4}) || pos.KingSquare(Black) != (Square{Row: 0, Col: 4}) {
		t.Errorf("king squares changed: %v %v", pos.KingSquare(White), pos.KingSquare(Black))
	}
	if len(pos.History()) != 1 {
		t.Errorf("history length = %d, want 1", len(pos.History()))
	}

	undone, ok := pos.Undo()
	if !ok || !undone.Equal(m) {
		t.Fatalf("Undo = %v, %v", undone, ok)
	}
	b = pos.Board()
	if b.Get(e2) != (Piece{Type: Pawn, Color: White}) || !b.Get(e4).IsEmpty() {
		t.Errorf("pawn not restored:\n%s", b.String())
	}
	if pos.SideToMove() != White {
		t.Errorf("side to move = %v, want white", pos.SideToMove())
	}
	if len(pos.History()) != 0 {
		t.Errorf("history length = %d, want 0", len(pos.History()))
	}
}

func TestUndoOnEmptyLogIsNoop(t *testing.T) {
	pos := NewPosition()
	before := pos.Board()

	if _, ok := pos.Undo(); ok {
		t.Fatal("Undo on a fresh position reported a move")
	}
	if pos.Board() != before || pos.SideToMove() != White {
		t.Error("Undo on a fresh position changed state")
	}
}

func TestUndoRestoresCaptureAndKing(t *testing.T) {
	pos := mustFEN(t, "6k1/8/8/8/8/8/4r3/4K3 w - - 0 1")
	before := pos.Board()

	m, err := pos.ParseMove("e1e2")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !m.IsCapture() || m.Captured != (Piece{Type: Rook, Color: Black}) {
		t.Errorf("expected rook capture, got %+v", m)
	}

	pos.Apply(m)
	if pos.KingSquare(White) != m.To {
		t.Errorf("white king = %v, want %v", pos.KingSquare(White), m.To)
	}

	pos.Undo()
	if pos.Board() != before {
		t.Errorf("board not restored:\n%s", func() string { b := pos.Board(); return b.String() }())
	}
	if pos.KingSquare(White) != m.From {
		t.Errorf("white king = %v, want %v", pos.KingSquare(White), m.From)
	}
}

// Apply followed by Undo restores board, side to move and king squares for every
// legal move, two plies deep.
func TestApplyUndoRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w - - 2 3",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"4r1k1/8/8/8/8/3n4/8/4K3 w - - 0 1",
	}
	type snapshot struct {
		board Board
		side  Color
		kings [2]Square
		fen   string
	}
	snap := func(p *Position) snapshot {
		return snapshot{p.Board(), p.SideToMove(), [2]Square{p.KingSquare(White), p.KingSquare(Black)}, p.FEN()}
	}

	for _, fen := range fens {
		pos := mustFEN(t, fen)
		root := snap(pos)
		for _, m := range pos.ValidMoves() {
			pos.Apply(m)
			child := snap(pos)
			for _, reply := range pos.ValidMoves() {
				pos.Apply(reply)
				pos.Undo()
				if snap(pos) != child {
					t.Fatalf("%s: %s %s did not round trip", fen, m, reply)
				}
			}
			pos.Undo()
			if snap(pos) != root {
				t.Fatalf("%s: %s did not round trip", fen, m)
			}
		}
	}
}

func TestSingleCheckFromSlider(t *testing.T) {
	pos := mustFEN(t, "4r1k1/8/8/8/R7/8/8/4K3 w - - 0 1")
	threats := pos.Threats()
	if len(threats.Checks) != 1 {
		t.Fatalf("checks = %+v, want one", threats.Checks)
	}
	check := threats.Checks[0]
	king := pos.KingSquare(White)

	moves := pos.ValidMoves()
	want := []string{"a4e4", "e1d1", "e1d2", "e1f1", "e1f2"}
	if got := notations(moves); !slices.Equal(got, want) {
		t.Errorf("moves = %v, want %v", got, want)
	}

	for _, m := range moves {
		if m.Moved.Type == King {
			continue
		}
		onLine := false
		for i := 1; i < 8; i++ {
			s := king.Add(check.Dir, i)
			if s == m.To {
				onLine = true
			}
			if s == check.Square {
				break
			}
		}
		if !onLine {
			t.Errorf("non-king move %s does not block or capture", m)
		}
	}
}

func TestSingleCheckFromKnight(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/3n4/8/1B2K3 w - - 0 1")
	moves := pos.ValidMoves()

	want := []string{"b1d3", "e1d1", "e1d2", "e1e2", "e1f1"}
	if got := notations(moves); !slices.Equal(got, want) {
		t.Errorf("moves = %v, want %v", got, want)
	}
	knight := Square{Row: 5, Col: 3}
	for _, m := range moves {
		if m.Moved.Type != King && m.To != knight {
			t.Errorf("non-king move %s does not capture the knight", m)
		}
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	pos := mustFEN(t, "4r1k1/8/8/8/8/R2n4/8/4K3 w - - 0 1")
	if n := len(pos.Threats().Checks); n != 2 {
		t.Fatalf("checks = %d, want 2", n)
	}

	moves := pos.ValidMoves()
	want := []string{"e1d1", "e1d2", "e1f1"}
	if got := notations(moves); !slices.Equal(got, want) {
		t.Errorf("moves = %v, want %v", got, want)
	}
	for _, m := range moves {
		if m.Moved.Type != King {
			t.Errorf("non-king move %s in double check", m)
		}
	}
}

func TestNoMovesIsObservable(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		inCheck bool
	}{
		{"back rank mate", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", true},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustFEN(t, tc.fen)
			if moves := pos.ValidMoves(); len(moves) != 0 {
				t.Errorf("moves = %v, want none", notations(moves))
			}
			if pos.InCheck() != tc.inCheck {
				t.Errorf("InCheck = %v, want %v", pos.InCheck(), tc.inCheck)
			}
		})
	}
}

func TestParseMoveErrors(t *testing.T) {
	pos := NewPosition()

	for _, notation := range []string{"e2e5", "e7e5", "e1e2", "e2"} {
		if _, err := pos.ParseMove(notation); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("ParseMove(%q) error = %v, want ErrIllegalMove", notation, err)
		}
	}
	if _, err := pos.ParseMove("z2e4"); !errors.Is(err, ErrInvalidSquare) {
		t.Errorf("ParseMove(z2e4) error = %v, want ErrInvalidSquare", err)
	}
}

func TestFullMoveNumber(t *testing.T) {
	pos := NewPosition()
	for _, notation := range []string{"e2e4", "e7e5", "g1f3"} {
		m, err := pos.ParseMove(notation)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", notation, err)
		}
		pos.Apply(m)
	}
	if pos.FullMoveNumber() != 2 {
		t.Errorf("FullMoveNumber = %d, want 2", pos.FullMoveNumber())
	}
	if last, _ := pos.LastMove(); last.Algebraic() != "g1f3" {
		t.Errorf("LastMove = %s, want g1f3", last)
	}

	pos.Undo()
	pos.Undo()
	if pos.FullMoveNumber() != 1 {
		t.Errorf("FullMoveNumber after undo = %d, want 1", pos.FullMoveNumber())
	}
}
