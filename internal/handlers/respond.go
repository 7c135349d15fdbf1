package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/services"
)

// respondError writes the response for a failed service call and records the
// error on the context for the request logger.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	if errors.Is(err, services.ErrAIServiceNotConfigured) {
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		return
	}
	apierrors.RespondWithDomainError(c, err)
}
