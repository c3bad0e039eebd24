package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the websocket endpoint and the leaderboard API.
func NewRouter(service *app.GameService, ws *WSHandler) http.Handler {
	api := &leaderboardHandler{service: service}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard/{operation}", api.getLeaderboard)
		r.Delete("/players/{playerID}/scores", api.resetScores)
	})
	return r
}

type leaderboardHandler struct {
	service *app.GameService
}

func (h *leaderboardHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	op, err := domain.ParseOperation(chi.URLParam(r, "operation"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	board, err := h.service.Leaderboard(r.Context(), op)
	if err != nil {
		log.Printf("leaderboard %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, errors.New("leaderboard unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *leaderboardHandler) resetScores(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.ResetScores(r.Context(), chi.URLParam(r, "playerID"))
	if errors.Is(err, domain.ErrPlayerRequired) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		log.Printf("reset scores: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("could not reset scores"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
