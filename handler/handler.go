package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"transcription-service/constant"
	"transcription-service/dto"
	"transcription-service/pkg/fetch"
	"transcription-service/repository"
	"transcription-service/service"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.Root)
	r.POST("/media", h.SubmitMedia)
	r.GET("/media/:id", h.GetMediaStatus)
	r.GET("/media/:id/transcript", h.GetTranscriptText)
	r.GET("/media/:id/transcript.json", h.GetTranscriptJSON)
	r.DELETE("/media/:id", h.DeleteMedia)
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": constant.ServiceName,
		"status":  "running",
		"version": constant.ServiceVersion,
	})
}

func (h *Handler) SubmitMedia(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to download media: %v", fetchErr)})
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("submit failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, media)
}

func (h *Handler) GetMediaStatus(c *gin.Context) {
	id, ok := h.mediaID(c)
	if !ok {
		return
	}

	media, err := h.svc.GetStatus(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, media)
}

func (h *Handler) GetTranscriptText(c *gin.Context) {
	id, ok := h.mediaID(c)
	if !ok {
		return
	}

	text, err := h.svc.GetTranscript(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.String(http.StatusOK, text)
}

func (h *Handler) GetTranscriptJSON(c *gin.Context) {
	id, ok := h.mediaID(c)
	if !ok {
		return
	}

	transcript, err := h.svc.GetTranscriptJSON(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transcript)
}

func (h *Handler) DeleteMedia(c *gin.Context) {
	id, ok := h.mediaID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Media %s deleted successfully", id)})
}

// mediaID parses the path id. A malformed id cannot name a job, so it
// gets the same 404 as an unknown one.
func (h *Handler) mediaID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Media ID %s not found", c.Param("id"))})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var transcriptionErr *service.TranscriptionError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Media ID %s not found", c.Param("id"))})
	case errors.Is(err, service.ErrTranscriptPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Transcription still in progress"})
	case errors.Is(err, service.ErrTranscriptMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": "Transcript file not found"})
	case errors.As(err, &transcriptionErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": transcriptionErr.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
