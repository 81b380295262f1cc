package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
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

type gamePayload struct {
	GameID string `json:"gameId"`
}

type wsAnswerPayload struct {
	GameID string `json:"gameId"`
	Key    string `json:"key"`
}

type wsHelpPayload struct {
	GameID string          `json:"gameId"`
	Kind   domain.HelpKind `json:"kind"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	GameID  string `json:"gameId,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
// The connection follows one game at a time and receives its updates as "game" messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s := &wsSession{
		service:    h.service,
		ctx:        r.Context(),
		userID:     userID,
		send:       make(chan outboundMessage[any], 16),
		closing:    make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	go func() {
		defer close(s.writerDone)
		for msg := range s.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		s.handle(inbound)
	}

	close(s.closing)
	s.unfollow()
	s.feeds.Wait()
	close(s.send)
	<-s.writerDone
}

// wsSession is the per-connection state. Only the read loop calls its methods.
type wsSession struct {
	service *app.GameService
	ctx     context.Context
	userID  string

	send       chan outboundMessage[any]
	closing    chan struct{}
	writerDone chan struct{}

	feeds      sync.WaitGroup
	following  string
	cancelFeed func()
}

func (s *wsSession) handle(inbound inboundMessage) {
	switch inbound.Type {
	case "start":
		view, err := s.service.StartGame(s.ctx, s.userID)
		if err != nil {
			var active *domain.ActiveGameError
			if errors.As(err, &active) {
				s.follow(active.GameID)
			}
			s.fail(err)
			return
		}
		s.follow(view.ID)
	case "resume":
		var payload gamePayload
		if !s.decode(inbound.Payload, &payload) {
			return
		}
		gameID := payload.GameID
		if gameID == "" {
			view, err := s.service.ActiveGame(s.ctx, s.userID)
			if err != nil {
				s.fail(err)
				return
			}
			gameID = view.ID
		}
		s.follow(gameID)
	case "answer":
		var payload wsAnswerPayload
		if !s.decode(inbound.Payload, &payload) {
			return
		}
		s.follow(payload.GameID)
		result, err := s.service.Answer(s.ctx, s.userID, payload.GameID, payload.Key)
		if err != nil {
			s.fail(err)
			return
		}
		s.emit("answerResult", result)
	case "cashOut":
		var payload gamePayload
		if !s.decode(inbound.Payload, &payload) {
			return
		}
		s.follow(payload.GameID)
		if _, err := s.service.CashOut(s.ctx, s.userID, payload.GameID); err != nil {
			s.fail(err)
		}
	case "help":
		var payload wsHelpPayload
		if !s.decode(inbound.Payload, &payload) {
			return
		}
		s.follow(payload.GameID)
		help, err := s.service.UseHelp(s.ctx, s.userID, payload.GameID, payload.Kind)
		if err != nil {
			s.fail(err)
			return
		}
		s.emit("help", help)
	default:
		s.emit("error", errorPayload{Message: "unsupported message type"})
	}
}

// follow switches the connection's feed to gameID. The feed starts with a snapshot.
func (s *wsSession) follow(gameID string) {
	if gameID == "" || gameID == s.following {
		return
	}
	updates, cancel, err := s.service.Subscribe(s.ctx, s.userID, gameID)
	if err != nil {
		return
	}
	s.unfollow()
	s.following = gameID
	s.cancelFeed = cancel

	s.feeds.Add(1)
	go func() {
		defer s.feeds.Done()
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case s.send <- outboundMessage[any]{Type: "game", Payload: update}:
				case <-s.closing:
					return
				}
			case <-s.closing:
				return
			}
		}
	}()
}

func (s *wsSession) unfollow() {
	if s.cancelFeed != nil {
		s.cancelFeed()
		s.cancelFeed = nil
	}
	s.following = ""
}

func (s *wsSession) decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return true
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.emit("error", errorPayload{Message: "invalid payload"})
		return false
	}
	return true
}

func (s *wsSession) fail(err error) {
	payload := errorPayload{Message: err.Error()}
	var active *domain.ActiveGameError
	if errors.As(err, &active) {
		payload.GameID = active.GameID
	}
	s.emit("error", payload)
}

func (s *wsSession) emit(typ string, payload any) {
	select {
	case s.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-s.writerDone:
	}
}
