package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service      *app.GameService
	tickInterval time.Duration
	upgrader     websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*playerConn
}

// playerConn is the single live connection of a player. It owns the clock.
type playerConn struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func (c *playerConn) stop() {
	c.once.Do(func() { close(c.done) })
}

func NewWSHandler(service *app.GameService, tickInterval time.Duration) *WSHandler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &WSHandler{
		service:      service,
		tickInterval: tickInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*playerConn),
	}
}

// attach makes c the player's live connection and closes the one it replaces.
func (h *WSHandler) attach(playerID string, c *playerConn) {
	h.mu.Lock()
	prev := h.conns[playerID]
	h.conns[playerID] = c
	h.mu.Unlock()

	if prev != nil {
		prev.stop()
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "replaced by a newer connection")
		_ = prev.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = prev.conn.Close()
	}
}

// detach drops the session only if c is still the player's live connection.
func (h *WSHandler) detach(playerID string, c *playerConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[playerID] != c {
		return
	}
	delete(h.conns, playerID)
	h.service.Leave(context.Background(), playerID)
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Operation string `json:"operation"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS upgrades HTTP requests to websockets and runs one player's games
// over the connection. The server owns the clock and ticks every tickInterval.
// A player has one live connection; a newer one takes over the running game.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	player := domain.Player{
		ID:          r.URL.Query().Get("userId"),
		DisplayName: r.URL.Query().Get("name"),
	}
	if player.ID == "" || player.DisplayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	pc := &playerConn{conn: conn, done: make(chan struct{})}
	h.attach(player.ID, pc)
	defer h.detach(player.ID, pc)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				state, changed, err := h.service.Tick(ctx, player.ID)
				if err != nil || !changed {
					continue
				}
				msgs := []outboundMessage[any]{{Type: "tick", Payload: state}}
				if state.IsGameOver() {
					msgs = append(msgs, outboundMessage[any]{Type: "gameOver", Payload: state})
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-pc.done:
						return
					}
				}
			case <-pc.done:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "ready", Payload: player}

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, player, inbound) {
			select {
			case send <- msg:
			case <-writerDone:
				break read
			}
		}
	}

	pc.stop()
	<-tickerDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, player domain.Player, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage(errors.New("invalid start payload"))}
		}
		op, err := domain.ParseOperation(payload.Operation)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		state, err := h.service.Start(ctx, player, op)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "state", Payload: state}}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage(errors.New("invalid answer payload"))}
		}
		result, err := h.service.SubmitAnswer(ctx, player.ID, payload.Answer)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "answerResult", Payload: result}}
	case "end":
		state, err := h.service.End(ctx, player.ID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "gameOver", Payload: state}}
	case "reset":
		state, err := h.service.Reset(ctx, player.ID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "state", Payload: state}}
	default:
		return []outboundMessage[any]{errorMessage(errors.New("unsupported message type"))}
	}
}
