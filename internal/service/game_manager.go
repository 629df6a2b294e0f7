// service/game_manager.go
package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/movegen-backend/internal/model"
	"github.com/benbeisheim/movegen-backend/internal/storage"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

// GameStore is the persistence the manager needs. *storage.Storage implements it.
type GameStore interface {
	SaveGame(rec storage.GameRecord) error
	ListGames() ([]storage.GameRecord, error)
}

type GameManager struct {
	games map[string]*model.Game
	store GameStore
	mu    sync.RWMutex
}

// NewGameManager creates a manager. A nil store keeps games in memory only.
func NewGameManager(store GameStore) *GameManager {
	return &GameManager{
		games: make(map[string]*model.Game),
		store: store,
	}
}

// Restore loads every stored game by replaying its moves. Records that fail to replay
// are logged and skipped.
func (gm *GameManager) Restore() (int, error) {
	if gm.store == nil {
		return 0, nil
	}
	records, err := gm.store.ListGames()
	if err != nil {
		return 0, fmt.Errorf("list games: %w", err)
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	restored := 0
	for _, rec := range records {
		players := model.Players{
			White: model.ClientPlayer{ID: rec.White, Color: model.White},
			Black: model.ClientPlayer{ID: rec.Black, Color: model.Black},
		}
		game, err := model.RestoreGame(rec.ID, rec.StartFEN, rec.Moves, players)
		if err != nil {
			log.Warnw("skipping stored game", "game", rec.ID, "error", err)
			continue
		}
		gm.games[rec.ID] = game
		restored++
	}
	return restored, nil
}

func (gm *GameManager) CreateGame(gameID, fen string) error {
	game := model.NewGame(gameID)
	if fen != "" {
		var err error
		game, err = model.NewGameFromFEN(gameID, fen)
		if err != nil {
			return err
		}
	}

	gm.mu.Lock()
	if _, exists := gm.games[gameID]; exists {
		gm.mu.Unlock()
		return ErrGameExists
	}
	gm.games[gameID] = game
	gm.mu.Unlock()

	return gm.persist(game)
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.White, err
	}

	color, err := game.AddPlayer(playerID)
	if err != nil {
		return color, err
	}
	return color, gm.persist(game)
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}

	return game.GetState(), nil
}

func (gm *GameManager) LegalMoves(gameID string, from model.Square) ([]model.SimpleMove, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	return game.LegalMovesFrom(from), nil
}

func (gm *GameManager) MakeMove(gameID string, playerID string, from, to model.Square) (model.Move, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.Move{}, err
	}

	m, err := game.MakeMove(playerID, from, to)
	if err != nil {
		return m, err
	}
	return m, gm.persist(game)
}

func (gm *GameManager) Undo(gameID string, playerID string) (model.Move, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.Move{}, err
	}

	m, err := game.Undo(playerID)
	if err != nil {
		return m, err
	}
	return m, gm.persist(game)
}

func (gm *GameManager) persist(game *model.Game) error {
	if gm.store == nil {
		return nil
	}
	return game.Persist(func(snap model.Snapshot) error {
		rec := storage.GameRecord{
			ID:       snap.ID,
			StartFEN: snap.StartFEN,
			Moves:    snap.Moves,
			White:    snap.Players.White.ID,
			Black:    snap.Players.Black.ID,
		}
		if err := gm.store.SaveGame(rec); err != nil {
			return fmt.Errorf("save game %s: %w", snap.ID, err)
		}
		return nil
	})
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}

	game.UnregisterConnection(playerID, conn)
}
