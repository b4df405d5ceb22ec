package handler

import (
	"errors"
	"io"
	"net/http"

	"revenue_backend/internal/revenue/service"
	"revenue_backend/internal/revenue/transport"
	"revenue_backend/platform/httpkit"
	"revenue_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc     *service.Service
	val     *validator.Validator
	metrics http.Handler
}

// New creates the control surface handler. metrics may be nil.
func New(svc *service.Service, val *validator.Validator, metrics http.Handler) *Handler {
	return &Handler{svc: svc, val: val, metrics: metrics}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Health)
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
	r.GET("/cycles", h.Cycles)
	r.GET("/leads/recent", h.RecentLeads)
	r.POST("/cycle/run", h.RunCycle)
	r.POST("/stop", h.Stop)
	r.POST("/start", h.Start)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
}

func (h *Handler) Health(c *gin.Context) {
	httpkit.OK(c, h.svc.Health())
}

func (h *Handler) Stats(c *gin.Context) {
	httpkit.OK(c, h.svc.Stats())
}

func (h *Handler) Cycles(c *gin.Context) {
	httpkit.OK(c, h.svc.Cycles())
}

func (h *Handler) RecentLeads(c *gin.Context) {
	httpkit.OK(c, h.svc.RecentLeads())
}

func (h *Handler) RunCycle(c *gin.Context) {
	var req transport.RunCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	resp, err := h.svc.RunCycle(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	// Both modes answer 200; the body's status tells accepted from completed.
	httpkit.OK(c, resp)
}

func (h *Handler) Stop(c *gin.Context) {
	httpkit.OK(c, h.svc.Stop())
}

func (h *Handler) Start(c *gin.Context) {
	httpkit.OK(c, h.svc.Start())
}
