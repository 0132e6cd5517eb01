package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

const (
	roleAdmin     = "admin"
	rolePlayer    = "player"
	rolePresenter = "presenter"
)

// WSHandler wires WebSocket connections into the live quiz: every
// session change is pushed to the client as its role projection, and
// inbound messages carry answers and admin operations.
type WSHandler struct {
	service  *app.SessionService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
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

type answerPayload struct {
	QuestionIndex int    `json:"questionIndex"`
	Choice        *int   `json:"choice,omitempty"`
	Text          string `json:"text,omitempty"`
	Ranking       []int  `json:"ranking,omitempty"`
}

type indexPayload struct {
	Index int `json:"index"`
}

type presenterPayload struct {
	Enabled bool `json:"enabled"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the push/command loop.
// Query: code, userId, role (admin|player|presenter, default player).
func (h *WSHandler) ServeWS(c *gin.Context) {
	code := c.Query("code")
	userID := c.Query("userId")
	role := c.DefaultQuery("role", rolePlayer)
	if code == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or userId"})
		return
	}

	snapshot, err := h.service.Get(c.Request.Context(), code)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	switch role {
	case roleAdmin, rolePresenter:
		// Presenter windows are opened by the admin; both views carry
		// pre-reveal aggregates, so both require the admin identity.
		if !h.service.IsAdmin(userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrNotAuthorized.Error()})
			return
		}
	case rolePlayer:
		if _, ok := snapshot.Participants[userID]; !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrParticipantNotFound.Error()})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Watch(c.Request.Context(), code)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					// Store dropped the subscription: session expired.
					select {
					case send <- outboundMessage[any]{Type: "sessionExpired", Payload: nil}:
					case <-writerDone:
					case <-closeSignals:
					}
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: h.project(role, userID, update)}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handleMessage(c, code, userID, inbound, send, writerDone)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleMessage(c *gin.Context, code, userID string, inbound inboundMessage, send chan<- outboundMessage[any], writerDone <-chan struct{}) {
	ctx := c.Request.Context()
	// The writer may have exited on a write error while the client is
	// still sending commands; replies must never block the read loop.
	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	fail := func(err error) {
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
			return
		}
		var (
			result domain.AnswerResult
			err    error
		)
		switch {
		case payload.Choice != nil:
			result, err = h.service.SubmitChoice(ctx, code, userID, payload.QuestionIndex, *payload.Choice)
		case payload.Ranking != nil:
			result, err = h.service.SubmitRanking(ctx, code, userID, payload.QuestionIndex, payload.Ranking)
		default:
			result, err = h.service.SubmitWords(ctx, code, userID, payload.QuestionIndex, payload.Text)
		}
		if err != nil {
			fail(err)
			return
		}
		push(outboundMessage[any]{Type: "answerResult", Payload: result})
	case "start":
		if _, err := h.service.Start(ctx, userID, code); err != nil {
			fail(err)
		}
	case "advance":
		if _, err := h.service.Advance(ctx, userID, code); err != nil {
			fail(err)
		}
	case "finish":
		if _, err := h.service.Finish(ctx, userID, code); err != nil {
			fail(err)
		}
	case "reveal":
		var payload indexPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid reveal payload"}})
			return
		}
		if _, err := h.service.Reveal(ctx, userID, code, payload.Index); err != nil {
			fail(err)
		}
	case "jumpTo":
		var payload indexPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid jumpTo payload"}})
			return
		}
		if _, err := h.service.JumpTo(ctx, userID, code, payload.Index); err != nil {
			fail(err)
		}
	case "presenterMode":
		var payload presenterPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid presenterMode payload"}})
			return
		}
		if _, err := h.service.SetPresenterMode(ctx, userID, code, payload.Enabled); err != nil {
			fail(err)
		}
	default:
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}

func (h *WSHandler) project(role, userID string, s domain.Session) any {
	switch role {
	case roleAdmin:
		return app.ProjectAdmin(s)
	case rolePresenter:
		return app.ProjectPresenter(s)
	default:
		return app.ProjectPlayer(s, userID)
	}
}
