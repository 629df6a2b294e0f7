package model

// Move is a single ply. Moved and Captured are snapshots of the board taken when the
// move was built, so undo can restore both squares.
type Move struct {
	From     Square `json:"from"`
	To       Square `json:"to"`
	Moved    Piece  `json:"piece"`
	Captured Piece  `json:"capturedPiece"`
}

func NewMove(from, to Square, b *Board) Move {
	return Move{
		From:     from,
		To:       to,
		Moved:    b.Get(from),
		Captured: b.Get(to),
	}
}

// ID packs the four coordinates into one integer; it is injective over the board.
func (m Move) ID() int {
	return m.From.Row*1000 + m.From.Col*100 + m.To.Row*10 + m.To.Col
}

// Equal compares origin and destination only.
func (m Move) Equal(other Move) bool {
	return m.From == other.From && m.To == other.To
}

func (m Move) IsCapture() bool {
	return !m.Captured.IsEmpty()
}

// Algebraic returns coordinate notation such as "e2e4".
func (m Move) Algebraic() string {
	return m.From.String() + m.To.String()
}

func (m Move) String() string {
	return m.Algebraic()
}

// SimpleMove is the wire form of a move: a square pair plus its notation.
type SimpleMove struct {
	From     Square `json:"from"`
	To       Square `json:"to"`
	Notation string `json:"notation"`
}

func (m Move) Simple() SimpleMove {
	return SimpleMove{From: m.From, To: m.To, Notation: m.Algebraic()}
}
