package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "vm-transcriber/internal/api/errors"
	"vm-transcriber/internal/api/middleware"
	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/repository"
)

// TranscriptionResponse is the body of a successful lookup.
type TranscriptionResponse struct {
	MessageID string `json:"msg_id"`
	ReplyLink string `json:"reply_link"`
}

type transcriptionHandler struct {
	store  repository.ResultStore
	logger logging.Logger
}

// Get returns the reply link recorded for a message id.
func (h *transcriptionHandler) Get(c *gin.Context) {
	id := c.Param("msg_id")
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		middleware.HandleError(c, apierrors.NewBadRequestError("msg_id must be a numeric message id"))
		return
	}

	link, ok, err := h.store.Get(c.Request.Context(), id)
	switch {
	case apperrors.Is(err, apperrors.ErrStoreClosed):
		middleware.HandleError(c, apierrors.NewServiceUnavailableError("result store is closed"))
		return
	case err != nil:
		h.logger.Error("Lookup failed", zap.String("msg_id", id), zap.Error(err))
		middleware.HandleError(c, apierrors.NewServiceUnavailableError("result store unavailable"))
		return
	case !ok:
		middleware.HandleError(c, apierrors.NewNotFoundError("transcription"))
		return
	}

	c.JSON(http.StatusOK, TranscriptionResponse{MessageID: id, ReplyLink: link})
}
