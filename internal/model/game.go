package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/movegen-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

var (
	ErrGameFull         = errors.New("game is full")
	ErrNotInGame        = errors.New("player not in game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNothingToUndo    = errors.New("no move to undo")
	ErrNotAuthorized    = errors.New("not authorized to join this game")
	ErrAlreadyConnected = errors.New("player already connected")
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
	sendMu      sync.Mutex
	sent        uint64 // version of the last state broadcast, guarded by sendMu
}

// Game wraps one Position with its players and observers. The mutex serializes
// every query and mutation of the position.
type Game struct {
	ID          string
	mu          sync.Mutex
	saveMu      sync.Mutex
	position    *Position
	startFEN    string
	players     Players
	version     uint64 // bumped on every change, guarded by mu
	connections *GameConnections
}

// Snapshot is what gets persisted for a game: enough to replay it.
type Snapshot struct {
	ID       string
	StartFEN string
	Moves    []string
	Players  Players
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

type GameState struct {
	ID                string       `json:"id"`
	Board             [8][8]*Piece `json:"board"`
	FEN               string       `json:"fen"`
	ToMove            Color        `json:"toMove"`
	IsCheck           bool         `json:"isCheck"`
	Checks            []Check      `json:"checks"`
	LegalMoves        []SimpleMove `json:"legalMoves"`
	MoveHistory       []Ply        `json:"moveHistory"`
	LastMove          *SimpleMove  `json:"lastMove"`
	WhiteKingPosition Square       `json:"whiteKingPosition"`
	BlackKingPosition Square       `json:"blackKingPosition"`
	Players           Players      `json:"players"`
}

// Ply is one entry of the move history as sent to clients.
type Ply struct {
	Piece         Piece  `json:"piece"`
	From          Square `json:"from"`
	To            Square `json:"to"`
	CapturedPiece *Piece `json:"capturedPiece"`
	Notation      string `json:"notation"`
}

// WSMove is a move request: either a square pair from two clicks or a notation string.
type WSMove struct {
	From *Square `json:"from"`
	To   *Square `json:"to"`
	Move string  `json:"move"`
}

func (m WSMove) Squares() (Square, Square, error) {
	if m.Move != "" {
		if len(m.Move) != 4 {
			return NoSquare, NoSquare, fmt.Errorf("%w: %q", ErrIllegalMove, m.Move)
		}
		from, err := ParseSquare(m.Move[:2])
		if err != nil {
			return NoSquare, NoSquare, err
		}
		to, err := ParseSquare(m.Move[2:])
		if err != nil {
			return NoSquare, NoSquare, err
		}
		return from, to, nil
	}
	if m.From == nil || m.To == nil {
		return NoSquare, NoSquare, fmt.Errorf("%w: from and to are required", ErrInvalidSquare)
	}
	if !m.From.Valid() || !m.To.Valid() {
		return NoSquare, NoSquare, fmt.Errorf("%w: out of bounds", ErrInvalidSquare)
	}
	return *m.From, *m.To, nil
}

func NewGame(id string) *Game {
	return &Game{
		ID:          id,
		position:    NewPosition(),
		startFEN:    StartFEN,
		connections: NewGameConnections(),
	}
}

func NewGameFromFEN(id, fen string) (*Game, error) {
	pos, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{
		ID:          id,
		position:    pos,
		startFEN:    pos.FEN(),
		connections: NewGameConnections(),
	}, nil
}

// RestoreGame rebuilds a game by replaying notations from its start position.
func RestoreGame(id, startFEN string, moves []string, players Players) (*Game, error) {
	g, err := NewGameFromFEN(id, startFEN)
	if err != nil {
		return nil, err
	}
	for i, notation := range moves {
		m, err := g.position.ParseMove(notation)
		if err != nil {
			return nil, fmt.Errorf("replay ply %d: %w", i+1, err)
		}
		g.position.Apply(m)
	}
	g.players = players
	return g, nil
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

func (g *Game) AddPlayer(playerID string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		return color, nil
	}
	if g.players.White.ID == "" {
		g.players.White = ClientPlayer{ID: playerID, Color: White}
		g.version++
		log.Infow("player joined", "game", g.ID, "player", playerID, "color", White)
		return White, nil
	}
	if g.players.Black.ID == "" {
		g.players.Black = ClientPlayer{ID: playerID, Color: Black}
		g.version++
		log.Infow("player joined", "game", g.ID, "player", playerID, "color", Black)
		return Black, nil
	}
	return White, ErrGameFull
}

func (g *Game) colorOf(playerID string) (Color, bool) {
	if g.players.White.ID != "" && g.players.White.ID == playerID {
		return White, true
	}
	if g.players.Black.ID != "" && g.players.Black.ID == playerID {
		return Black, true
	}
	return White, false
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) canSpectate() bool {
	return g.players.White.ID == "" || g.players.Black.ID == ""
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state()
}

func (g *Game) state() GameState {
	pos := g.position
	board := pos.Board()
	threats := pos.Threats()

	st := GameState{
		ID:                g.ID,
		FEN:               pos.FEN(),
		ToMove:            pos.SideToMove(),
		IsCheck:           threats.InCheck,
		Checks:            threats.Checks,
		LegalMoves:        simpleMoves(pos.ValidMoves()),
		MoveHistory:       make([]Ply, 0, len(pos.moveLog)),
		WhiteKingPosition: pos.KingSquare(White),
		BlackKingPosition: pos.KingSquare(Black),
		Players:           g.players,
	}
	for row := range board {
		for col := range board[row] {
			if piece := board[row][col]; !piece.IsEmpty() {
				st.Board[row][col] = &piece
			}
		}
	}
	for _, m := range pos.moveLog {
		ply := Ply{Piece: m.Moved, From: m.From, To: m.To, Notation: m.Algebraic()}
		if m.IsCapture() {
			captured := m.Captured
			ply.CapturedPiece = &captured
		}
		st.MoveHistory = append(st.MoveHistory, ply)
	}
	if last, ok := pos.LastMove(); ok {
		simple := last.Simple()
		st.LastMove = &simple
	}
	return st
}

func simpleMoves(moves []Move) []SimpleMove {
	out := make([]SimpleMove, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.Simple())
	}
	return out
}

// LegalMovesFrom lists the legal moves of the piece on from, or of every piece when
// from is NoSquare.
func (g *Game) LegalMovesFrom(from Square) []SimpleMove {
	g.mu.Lock()
	defer g.mu.Unlock()

	if from == NoSquare {
		return simpleMoves(g.position.ValidMoves())
	}
	return simpleMoves(g.position.ValidMovesFrom(from))
}

func (g *Game) MakeMove(playerID string, from, to Square) (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, ok := g.colorOf(playerID)
	if !ok {
		return Move{}, ErrNotInGame
	}
	if color != g.position.SideToMove() {
		return Move{}, ErrNotYourTurn
	}

	m, err := g.position.FindMove(from, to)
	if err != nil {
		return Move{}, err
	}
	g.position.Apply(m)
	g.version++
	log.Debugw("move applied", "game", g.ID, "player", playerID, "move", m.Algebraic())

	go g.broadcastState(g.version, g.state())
	return m, nil
}

func (g *Game) Undo(playerID string) (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.colorOf(playerID); !ok {
		return Move{}, ErrNotInGame
	}
	m, ok := g.position.Undo()
	if !ok {
		return Move{}, ErrNothingToUndo
	}
	g.version++
	log.Debugw("move undone", "game", g.ID, "player", playerID, "move", m.Algebraic())

	go g.broadcastState(g.version, g.state())
	return m, nil
}

func (g *Game) StartFEN() string {
	return g.startFEN
}

// Notations returns the applied moves in coordinate notation, oldest first.
func (g *Game) Notations() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.notations()
}

func (g *Game) notations() []string {
	out := make([]string, 0, len(g.position.moveLog))
	for _, m := range g.position.moveLog {
		out = append(out, m.Algebraic())
	}
	return out
}

// Persist hands the current snapshot to save. Calls are serialized per game and each
// snapshot is taken after the previous save returned, so the last save always
// carries the latest state.
func (g *Game) Persist(save func(Snapshot) error) error {
	g.saveMu.Lock()
	defer g.saveMu.Unlock()

	g.mu.Lock()
	snap := Snapshot{
		ID:       g.ID,
		StartFEN: g.startFEN,
		Moves:    g.notations(),
		Players:  g.players,
	}
	g.mu.Unlock()

	return save(snap)
}

func (g *Game) Players() Players {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.players
}

func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	connID := fmt.Sprintf("%p", conn)

	g.mu.Lock()
	_, seated := g.colorOf(playerID)
	isAuthorized := seated || g.canSpectate()
	g.mu.Unlock()

	if !isAuthorized {
		return ErrNotAuthorized
	}

	if !g.connections.add(playerID, conn) {
		// keep the existing connection and reject the new one
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		return ErrAlreadyConnected
	}
	log.Infow("registered connection", "game", g.ID, "player", playerID, "conn", connID)

	g.mu.Lock()
	version, state := g.version, g.state()
	g.mu.Unlock()
	go g.broadcastState(version, state)
	return nil
}

func (gc *GameConnections) add(playerID string, conn *websocket.Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if _, exists := gc.connections[playerID]; exists {
		return false
	}
	gc.connections[playerID] = conn
	return true
}

// remove deletes the player's entry only if it still points at conn.
func (gc *GameConnections) remove(playerID string, conn *websocket.Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if current, exists := gc.connections[playerID]; exists && current == conn {
		delete(gc.connections, playerID)
		return true
	}
	return false
}

func (g *Game) UnregisterConnection(playerID string, conn *websocket.Conn) {
	if g.connections.remove(playerID, conn) {
		log.Infow("unregistered connection", "game", g.ID, "player", playerID)
	}
}

// broadcastState sends a state snapshot to every registered connection and drops the
// ones that fail. A snapshot older than one already sent is skipped.
func (g *Game) broadcastState(version uint64, state GameState) bool {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorw("failed to marshal state", "game", g.ID, "error", err)
		return false
	}

	g.connections.sendMu.Lock()
	defer g.connections.sendMu.Unlock()
	if version < g.connections.sent {
		log.Debugw("skipping stale state", "game", g.ID, "version", version, "sent", g.connections.sent)
		return false
	}
	g.connections.sent = version

	g.connections.mu.RLock()
	activeConnections := make(map[string]*websocket.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range activeConnections {
		if err := conn.WriteJSON(ws.Message{
			Type:    ws.MessageTypeGameState,
			Payload: json.RawMessage(payload),
		}); err != nil {
			log.Warnw("failed to send state", "game", g.ID, "player", playerID, "error", err)
			g.connections.remove(playerID, conn)
		}
	}
	return true
}

// Send writes one message to a player's connection, serialized with broadcasts.
func (g *Game) Send(conn *websocket.Conn, msg ws.Message) error {
	g.connections.sendMu.Lock()
	defer g.connections.sendMu.Unlock()
	return conn.WriteJSON(msg)
}
