package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbeisheim/movegen-backend/internal/model"
	"github.com/benbeisheim/movegen-backend/internal/service"
	"github.com/benbeisheim/movegen-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)

	game, err := wsc.gameService.GetGame(gameID)
	if err != nil {
		log.Warnw("websocket for unknown game", "game", gameID, "player", playerID)
		c.WriteJSON(ws.NewErrorMessage(err.Error()))
		c.Close()
		return
	}

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		if errors.Is(err, model.ErrAlreadyConnected) {
			// already closed, the existing socket stays registered
			log.Infow("duplicate connection rejected", "game", gameID, "player", playerID)
			return
		}
		log.Warnw("failed to register connection", "game", gameID, "player", playerID, "error", err)
		c.WriteJSON(ws.NewErrorMessage(err.Error()))
		c.Close()
		return
	}

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugw("websocket read ended", "game", gameID, "player", playerID, "error", err)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Warnw("websocket parse error", "game", gameID, "player", playerID, "error", err)
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			if sendErr := game.Send(c, ws.NewErrorMessage(err.Error())); sendErr != nil {
				log.Warnw("failed to send error", "game", gameID, "player", playerID, "error", sendErr)
			}
		}
	}

	wsc.gameService.UnregisterConnection(gameID, playerID, c)
}

func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return err

	case ws.MessageTypeUndo:
		_, err := wsc.gameService.HandleUndo(gameID, playerID)
		return err

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}
