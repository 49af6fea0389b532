package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/live-request-service/internal/dyte"
	"github.com/psds-microservice/live-request-service/internal/errs"
	"github.com/psds-microservice/live-request-service/internal/model"
	"github.com/psds-microservice/live-request-service/internal/service"
	"go.uber.org/zap"
)

type LiveRequestHandler struct {
	svc service.LiveRequestServicer
	log *zap.Logger
}

func NewLiveRequestHandler(svc service.LiveRequestServicer, log *zap.Logger) *LiveRequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LiveRequestHandler{svc: svc, log: log}
}

// Create godoc
// POST /live-requests/
func (h *LiveRequestHandler) Create(c *gin.Context) {
	var req model.CreateLiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			c.JSON(http.StatusBadRequest, gin.H{"errors": map[string]string{typeErr.Field: "invalid type, expected " + typeErr.Type.String()}})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "message": err.Error()})
		return
	}
	created, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List godoc
// GET /live-requests/ (только PENDING).
func (h *LiveRequestHandler) List(c *gin.Context) {
	items, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get godoc
// GET /live-requests/:id/
func (h *LiveRequestHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Start godoc
// POST /live-requests/:id/start/: 201 при первом подключении поддержки, 200 при переподключении.
func (h *LiveRequestHandler) Start(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.svc.Start(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, model.AuthTokenResponse{DyteAuthToken: res.AuthToken})
}

// UserToken godoc
// GET /live-requests/:id/user-token/
func (h *LiveRequestHandler) UserToken(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	token, err := h.svc.GetUserToken(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AuthTokenResponse{DyteAuthToken: token})
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *LiveRequestHandler) writeError(c *gin.Context, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"errors": ve.Fields})
	case errors.Is(err, errs.ErrLiveRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "live request not found"})
	case dyte.IsProviderError(err):
		h.log.Error("conferencing provider error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "conferencing provider error"})
	default:
		h.log.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
