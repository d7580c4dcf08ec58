package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/middleware"
	"discord-giveaway-bot/internal/features/interaction"
)

// Verifier authenticates the raw request and returns the verified body.
type Verifier interface {
	Verify(r *http.Request) ([]byte, error)
}

// Dispatcher turns a verified body into an interaction result.
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte) (*interaction.Result, error)
}

// FollowupRunner runs deferred work once the response is written.
type FollowupRunner interface {
	Go(name string, fn interaction.Followup)
}

type InteractionHandler struct {
	verifier   Verifier
	dispatcher Dispatcher
	followups  FollowupRunner
	logger     zerolog.Logger
}

func NewInteractionHandler(verifier Verifier, dispatcher Dispatcher, followups FollowupRunner, logger zerolog.Logger) *InteractionHandler {
	return &InteractionHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		followups:  followups,
		logger:     logger,
	}
}

// RegisterRoutes binds every method so the verifier can answer 405 itself.
func (h *InteractionHandler) RegisterRoutes(router gin.IRouter) {
	router.Any("/interactions", h.handle)
}

func (h *InteractionHandler) handle(c *gin.Context) {
	body, err := h.verifier.Verify(c.Request)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result.Response)
	c.Writer.Flush()

	if result.Followup != nil {
		h.followups.Go("request-"+middleware.GetRequestID(c), result.Followup)
	}
}
