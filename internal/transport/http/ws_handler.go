package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"ham-practice/internal/app"
	"ham-practice/internal/domain"
)

// WSHandler runs one practice Engine per websocket connection. Engines share the
// bank repository; progress is namespaced by the learner query parameter.
type WSHandler struct {
	banks    app.BankRepository
	store    app.KVStore
	opts     app.Options
	upgrader websocket.Upgrader
}

func NewWSHandler(banks app.BankRepository, store app.KVStore, opts app.Options) *WSHandler {
	return &WSHandler{
		banks: banks,
		store: store,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type bankPayload struct {
	BankID string `json:"bankId"`
}

type selectPayload struct {
	Label string `json:"label"`
}

type jumpPayload struct {
	Target string `json:"target"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

type banksPayload struct {
	Banks    []domain.BankSummary `json:"banks"`
	Fallback bool                 `json:"fallback"`
}

// ServeWS upgrades the request and serves practice messages until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	learner := r.URL.Query().Get("learner")
	if learner == "" {
		http.Error(w, "missing learner", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	engine := app.NewEngine(h.banks, app.NewTracker(h.store, "learner:"+learner), h.opts)
	s := &wsSession{conn: conn, engine: engine}

	if err := engine.Resume(ctx); err != nil {
		s.sendError(err)
	}
	if !s.sendState() {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error: %v", err)
			}
			return
		}
		if !s.handle(ctx, inbound) {
			return
		}
	}
}

// wsSession is the single writer of its connection.
type wsSession struct {
	conn   *websocket.Conn
	engine *app.Engine
}

// handle applies one inbound message; false means the connection is gone.
func (s *wsSession) handle(ctx context.Context, in inboundMessage) bool {
	switch in.Type {
	case "listBanks":
		banks, err := s.engine.ListBanks(ctx)
		if !s.send("banks", banksPayload{Banks: banks, Fallback: err != nil}) {
			return false
		}
		if err != nil {
			return s.sendError(err)
		}
		return true
	case "loadBank", "loadWrong", "buildRandom":
		var p bankPayload
		if err := decodePayload(in.Payload, &p); err != nil || p.BankID == "" {
			return s.sendError(errors.New("invalid bank payload"))
		}
		var err error
		switch in.Type {
		case "loadBank":
			err = s.engine.LoadBank(ctx, p.BankID)
		case "loadWrong":
			err = s.engine.LoadWrong(ctx, p.BankID)
		default:
			err = s.engine.BuildRandom(ctx, p.BankID)
		}
		if err != nil && !s.sendError(err) {
			return false
		}
	case "select":
		var p selectPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return s.sendError(errors.New("invalid select payload"))
		}
		s.engine.Select(p.Label)
	case "check":
		if result, ok := s.engine.Check(); ok && !s.send("checkResult", result) {
			return false
		}
	case "submitRandom":
		score, err := s.engine.SubmitRandom()
		if err != nil {
			return s.sendError(err)
		}
		if !s.send("score", score) {
			return false
		}
	case "jump":
		var p jumpPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return s.sendError(errors.New("invalid jump payload"))
		}
		// an unknown target leaves the position as it was
		if err := s.engine.Jump(p.Target); err != nil && !errors.Is(err, domain.ErrInvalidTarget) {
			return s.sendError(err)
		}
	case "next":
		s.engine.Next()
	case "previous":
		s.engine.Previous()
	case "reset":
		s.engine.Reset()
	default:
		return s.sendError(errors.New("unsupported message type"))
	}
	return s.sendState()
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}

func (s *wsSession) sendState() bool {
	return s.send("state", s.engine.Snapshot())
}

func (s *wsSession) sendError(err error) bool {
	payload := errorPayload{Message: err.Error()}
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		payload.Status = fe.Status
	}
	return s.send("error", payload)
}

func (s *wsSession) send(typ string, payload any) bool {
	if err := s.conn.WriteJSON(outboundMessage{Type: typ, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
		return false
	}
	return true
}
