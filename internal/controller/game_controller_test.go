package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benbeisheim/movegen-backend/internal/model"
	"github.com/benbeisheim/movegen-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	SetupRoutes(app, service.NewGameService(service.NewGameManager(nil)), []string{"*"})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, playerID, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := make(map[string]any)
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func createGame(t *testing.T, app *fiber.App, body string) string {
	t.Helper()
	status, out := doRequest(t, app, http.MethodPost, "/api/game/create", "alice", body)
	if status != fiber.StatusOK {
		t.Fatalf("create status = %d: %v", status, out)
	}
	return out["game_id"].(string)
}

func TestPlayerIDRequired(t *testing.T) {
	app := setupApp(t)
	status, _ := doRequest(t, app, http.MethodPost, "/api/game/create", "", "")
	if status != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestGameRoutes(t *testing.T) {
	app := setupApp(t)
	gameID := createGame(t, app, "")
	base := "/api/game/" + gameID

	status, out := doRequest(t, app, http.MethodPost, "/api/game/join/"+gameID, "alice", "")
	if status != fiber.StatusOK || out["color"] != "white" {
		t.Fatalf("alice join = %d %v", status, out)
	}
	status, out = doRequest(t, app, http.MethodPost, "/api/game/join/"+gameID, "bob", "")
	if status != fiber.StatusOK || out["color"] != "black" {
		t.Fatalf("bob join = %d %v", status, out)
	}
	if status, _ = doRequest(t, app, http.MethodPost, "/api/game/join/"+gameID, "carol", ""); status != fiber.StatusConflict {
		t.Errorf("third join status = %d, want 409", status)
	}

	status, out = doRequest(t, app, http.MethodGet, base+"/moves?from=g1", "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("moves status = %d: %v", status, out)
	}
	if moves := out["moves"].([]any); len(moves) != 2 {
		t.Errorf("g1 moves = %v, want 2", moves)
	}
	if status, _ = doRequest(t, app, http.MethodGet, base+"/moves?from=z9", "alice", ""); status != fiber.StatusBadRequest {
		t.Errorf("bad square status = %d, want 400", status)
	}

	tests := []struct {
		name   string
		player string
		body   string
		status int
	}{
		{"outsider", "carol", `{"move":"e2e4"}`, fiber.StatusForbidden},
		{"wrong side", "bob", `{"move":"e7e5"}`, fiber.StatusConflict},
		{"illegal", "alice", `{"move":"e2e5"}`, fiber.StatusUnprocessableEntity},
		{"malformed square", "alice", `{"from":{"row":9,"col":0},"to":{"row":4,"col":4}}`, fiber.StatusBadRequest},
		{"square pair", "alice", `{"from":{"row":6,"col":4},"to":{"row":4,"col":4}}`, fiber.StatusOK},
		{"notation", "bob", `{"move":"e7e5"}`, fiber.StatusOK},
	}
	for _, tc := range tests {
		status, out := doRequest(t, app, http.MethodPost, base+"/move", tc.player, tc.body)
		if status != tc.status {
			t.Errorf("%s: status = %d, want %d: %v", tc.name, status, tc.status, out)
		}
	}

	status, out = doRequest(t, app, http.MethodGet, base, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("state status = %d", status)
	}
	if out["fen"] != "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w - - 0 2" {
		t.Errorf("fen = %v", out["fen"])
	}
	if history := out["moveHistory"].([]any); len(history) != 2 {
		t.Errorf("history = %v", history)
	}

	status, out = doRequest(t, app, http.MethodPost, base+"/undo", "bob", "")
	if status != fiber.StatusOK {
		t.Fatalf("undo status = %d: %v", status, out)
	}
	if mv := out["move"].(map[string]any); mv["notation"] != "e7e5" {
		t.Errorf("undone move = %v", mv)
	}
	if state := out["state"].(map[string]any); state["toMove"] != "black" {
		t.Errorf("to move after undo = %v", state["toMove"])
	}
}

func TestCreateGameWithFEN(t *testing.T) {
	app := setupApp(t)

	gameID := createGame(t, app, `{"fen":"4r1k1/8/8/8/8/R2n4/8/4K3 w - - 0 1"}`)
	status, out := doRequest(t, app, http.MethodGet, "/api/game/"+gameID, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("state status = %d", status)
	}
	if out["isCheck"] != true || len(out["checks"].([]any)) != 2 {
		t.Errorf("check info = %v %v", out["isCheck"], out["checks"])
	}
	if moves := out["legalMoves"].([]any); len(moves) != 3 {
		t.Errorf("legal moves = %v, want 3 king moves", moves)
	}

	if status, _ := doRequest(t, app, http.MethodPost, "/api/game/create", "alice", `{"fen":"bogus"}`); status != fiber.StatusBadRequest {
		t.Errorf("bad fen status = %d, want 400", status)
	}
}

func TestUnknownGame(t *testing.T) {
	app := setupApp(t)
	if status, _ := doRequest(t, app, http.MethodGet, "/api/game/nope", "alice", ""); status != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(model.ErrNothingToUndo); got != fiber.StatusConflict {
		t.Errorf("ErrNothingToUndo = %d", got)
	}
	if got := statusFor(io.EOF); got != fiber.StatusInternalServerError {
		t.Errorf("unknown error = %d", got)
	}
}
