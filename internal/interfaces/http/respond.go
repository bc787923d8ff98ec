package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// respondError maps service errors onto HTTP statuses. Workflow rule
// violations are client errors; stale-status conflicts get 409 so callers
// know to re-read and retry.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, "record changed concurrently, retry"
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, service.ErrAlreadyRejected),
		errors.Is(err, service.ErrAlreadySettled),
		errors.Is(err, service.ErrNotApproved),
		errors.Is(err, service.ErrDeadlineExceeded):
		status, msg = http.StatusBadRequest, err.Error()
	}

	c.JSON(status, Response{Success: false, Error: msg})
}
