package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

// actorHeader carries the caller's identity from the auth collaborator.
// The service only compares it against the configured admin id.
const actorHeader = "X-Actor-ID"

// SessionHandler serves the REST side: session setup, question
// authoring and the saved-session archive.
type SessionHandler struct {
	service *app.SessionService
	logger  *zap.Logger
}

func NewSessionHandler(service *app.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

type createSessionRequest struct {
	Name  string `json:"name"`
	Admin string `json:"admin"`
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	actor := c.GetHeader(actorHeader)
	if !h.service.IsAdmin(actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrNotAuthorized.Error()})
		return
	}
	session, err := h.service.CreateSession(c.Request.Context(), req.Name, req.Admin)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("session created", zap.String("code", session.Code))
	c.JSON(http.StatusCreated, app.ProjectAdmin(session))
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	code := c.Param("code")
	session, err := h.service.Get(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err)
		return
	}
	switch c.DefaultQuery("role", "player") {
	case "admin":
		if !h.service.IsAdmin(c.GetHeader(actorHeader)) {
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrNotAuthorized.Error()})
			return
		}
		c.JSON(http.StatusOK, app.ProjectAdmin(session))
	case "presenter":
		c.JSON(http.StatusOK, app.ProjectPresenter(session))
	default:
		c.JSON(http.StatusOK, app.ProjectPlayer(session, c.Query("userId")))
	}
}

type joinRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *SessionHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	participant, err := h.service.Join(c.Request.Context(), c.Param("code"), req.ID, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, participant)
}

func (h *SessionHandler) AddQuestion(c *gin.Context) {
	var q domain.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.service.AddQuestion(c.Request.Context(), c.GetHeader(actorHeader), c.Param("code"), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.ProjectAdmin(session))
}

type importRequest struct {
	Questions []domain.Question `json:"questions"`
}

func (h *SessionHandler) ImportQuestions(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.service.ImportQuestions(c.Request.Context(), c.GetHeader(actorHeader), c.Param("code"), req.Questions)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.ProjectAdmin(session))
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *SessionHandler) ReorderQuestions(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.service.ReorderQuestions(c.Request.Context(), c.GetHeader(actorHeader), c.Param("code"), req.From, req.To)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.ProjectAdmin(session))
}

func (h *SessionHandler) DeleteQuestion(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question index"})
		return
	}
	session, err := h.service.DeleteQuestion(c.Request.Context(), c.GetHeader(actorHeader), c.Param("code"), index)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.ProjectAdmin(session))
}

func (h *SessionHandler) SaveSession(c *gin.Context) {
	saved, err := h.service.SaveSession(c.Request.Context(), c.GetHeader(actorHeader), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *SessionHandler) ListSaved(c *gin.Context) {
	saves, err := h.service.ListSaved(c.Request.Context(), c.GetHeader(actorHeader))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"savedSessions": saves})
}

func (h *SessionHandler) RestoreSession(c *gin.Context) {
	session, err := h.service.RestoreSession(c.Request.Context(), c.GetHeader(actorHeader), c.Param("code"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.ProjectAdmin(session))
}

func (h *SessionHandler) DeleteSaved(c *gin.Context) {
	if err := h.service.DeleteSaved(c.Request.Context(), c.GetHeader(actorHeader), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSavedSessionNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidQuestionIndex),
		errors.Is(err, domain.ErrEmptyAnswer),
		errors.Is(err, domain.ErrAnswerKindMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyQuestionSet),
		errors.Is(err, domain.ErrAlreadyStarted),
		errors.Is(err, domain.ErrSessionFinished),
		errors.Is(err, domain.ErrSessionNotActive),
		errors.Is(err, domain.ErrNoMoreQuestions),
		errors.Is(err, domain.ErrNotCurrentQuestion):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
