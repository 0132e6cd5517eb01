package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP surface: REST for session setup and the
// archive, WebSocket for the live quiz.
func NewRouter(sessions *SessionHandler, ws *WSHandler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	s := r.Group("/sessions")
	{
		s.POST("", sessions.CreateSession)
		s.GET("/:code", sessions.GetSession)
		s.POST("/:code/join", sessions.Join)
		s.POST("/:code/questions", sessions.AddQuestion)
		s.POST("/:code/questions/import", sessions.ImportQuestions)
		s.POST("/:code/questions/reorder", sessions.ReorderQuestions)
		s.DELETE("/:code/questions/:index", sessions.DeleteQuestion)
		s.POST("/:code/save", sessions.SaveSession)
		s.POST("/:code/restore/:id", sessions.RestoreSession)
	}

	r.GET("/saved-sessions", sessions.ListSaved)
	r.DELETE("/saved-sessions/:id", sessions.DeleteSaved)

	r.GET("/ws", ws.ServeWS)

	return r
}
