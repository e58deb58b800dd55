package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shadabshaukat/searchd/engine/core"
)

// Response is the success envelope shared by every endpoint.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   any    `json:"error"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Status: http.StatusOK, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Status: http.StatusCreated, Message: message, Data: data})
}

// respondError maps engine errors onto problem responses. Caller faults map
// to 4xx, provider and database outages to 502/503 so load balancers can
// retry, and everything unclassified stays a 500.
func respondError(c *gin.Context, err error) {
	var extractErr *core.ExtractError
	if errors.As(err, &extractErr) {
		status := http.StatusBadRequest
		if extractErr.Kind == core.ExtractUnsupportedFormat {
			status = http.StatusUnsupportedMediaType
		}
		core.RespondProblem(c, &core.Problem{
			Status: status,
			Type:   string(extractErr.Kind),
			Detail: extractErr.Error(),
		})
		return
	}
	var synthErr *core.SynthesisError
	if errors.As(err, &synthErr) {
		status := http.StatusBadGateway
		if synthErr.Kind == core.SynthesisRateLimited {
			status = http.StatusTooManyRequests
		}
		core.RespondProblem(c, &core.Problem{
			Status: status,
			Type:   string(synthErr.Kind),
			Detail: synthErr.Error(),
		})
		return
	}
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.RespondProblem(c, &core.Problem{Status: http.StatusNotFound, Detail: err.Error()})
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrInvalidConfig):
		core.RespondProblem(c, &core.Problem{Status: http.StatusBadRequest, Detail: err.Error()})
	case core.IsTransientStore(err):
		core.RespondProblem(c, &core.Problem{Status: http.StatusServiceUnavailable, Detail: err.Error()})
	default:
		core.RespondProblem(c, &core.Problem{Status: http.StatusInternalServerError, Detail: err.Error()})
	}
}
