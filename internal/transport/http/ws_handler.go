package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"game-quiz-service/internal/app"
	"game-quiz-service/internal/auth"
	"game-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	data     *app.DataService
	auth     *auth.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(data *app.DataService, authService *auth.Service) *WSHandler {
	return &WSHandler{
		data: data,
		auth: authService,
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

type selectPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

func stateMessage(snap app.SessionSnapshot) outboundMessage[any] {
	return outboundMessage[any]{Type: "state", Payload: snap}
}

// ServeQuiz runs one quiz session over a websocket. The player is identified by
// the token query parameter; unknown quizzes and guests are refused before the
// upgrade.
func (h *WSHandler) ServeQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.URL.Query().Get("quizId"), 10, 64)
	token := r.URL.Query().Get("token")
	if err != nil || token == "" {
		http.Error(w, "missing quizId or token", http.StatusBadRequest)
		return
	}
	player, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	session, err := h.data.StartSession(r.Context(), quizID, &player)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(stateMessage(session.Snapshot())); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				reply = errorMessage("invalid select payload")
				break
			}
			snap, err := session.Select(*payload.Option)
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			reply = stateMessage(snap)
		case "next":
			snap, advanced := session.Advance(r.Context())
			switch {
			case advanced:
				reply = stateMessage(snap)
			case snap.State == app.StateCompleted:
				reply = errorMessage(domain.ErrSessionCompleted.Error())
			default:
				reply = errorMessage("select an option first")
			}
		case "restart":
			reply = stateMessage(session.Restart())
		default:
			reply = errorMessage("unsupported message type")
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("ws write error: %v", err)
			break
		}
	}
}

// ServeLeaderboard streams the leaderboard: the current board first, then a new
// board whenever a result is recorded.
func (h *WSHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.data.SubscribeLeaderboard(r.Context())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

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
		defer close(updatesDone)
		for {
			select {
			case board, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: board}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// The stream is one-way; reading only detects the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
