package handler

import (
	"net/http"

	"storybranch-server/internal/history"
	"storybranch-server/internal/middleware"
	"storybranch-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// readerSessionHeader carries the opaque session token for readers who
// are not signed in.
const readerSessionHeader = "X-Reader-Session"

var mutationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "story_graph_mutations_total",
	Help: "Story graph mutations by operation and outcome.",
}, []string{"operation", "outcome"})

func countMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mutationCounter.WithLabelValues(operation, outcome).Inc()
}

// Handler exposes the story graph and reader history over HTTP.
type Handler struct {
	service  service.StoryGraphService
	sessions history.SessionStore
	verifier middleware.TokenVerifier
	logger   *zap.Logger
}

func NewHandler(svc service.StoryGraphService, sessions history.SessionStore, verifier middleware.TokenVerifier, logger *zap.Logger) *Handler {
	return &Handler{
		service:  svc,
		sessions: sessions,
		verifier: verifier,
		logger:   logger.Named("Handler"),
	}
}

// RegisterRoutes wires the API. Editing surfaces require a signed-in
// user; reading surfaces accept anonymous callers so public stories stay
// reachable without an account.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(h.verifier, h.logger))
	{
		authed.GET("/stories", h.ListMyStories)
		authed.POST("/stories", h.CreateOrUpdateStory)
		authed.POST("/stories/:storyId/settings", h.UpdateStorySettings)
		authed.GET("/stories/:storyId/members", h.ListStoryMembers)

		authed.POST("/page-editor", h.PageEditor)
		authed.POST("/choice-editor", h.ChoiceEditor)
		authed.DELETE("/stories/:storyId/pages/:pageId", h.DeletePage)
		authed.DELETE("/stories/:storyId/pages/:pageId/choices/:choiceId", h.DeleteChoice)
	}

	public := api.Group("")
	public.Use(middleware.OptionalAuth(h.verifier, h.logger))
	{
		public.GET("/stories/:storyId", h.GetStory)
		public.GET("/stories/:storyId/pages/:pageId", h.GetPage)
		public.POST("/stories/:storyId/pages/:pageId/choice", h.MakeChoice)
		public.GET("/history", h.GetHistory)
		public.DELETE("/history", h.DeleteHistory)
	}
}
