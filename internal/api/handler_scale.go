package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"enturne-backend/internal/scale"
	"enturne-backend/internal/weighbridge"
)

// GetScaleStatus handles GET /api/scale/status.
func (h *Handler) GetScaleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scale.Status())
}

// GetScaleEvents handles GET /api/scale/events.
func (h *Handler) GetScaleEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.scale.Events()})
}

// GetScalePorts handles GET /api/scale/ports.
func (h *Handler) GetScalePorts(c *gin.Context) {
	ports, err := h.scale.Ports()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ports == nil {
		ports = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}

// GetScaleProtocols handles GET /api/scale/protocols.
func (h *Handler) GetScaleProtocols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"protocols": scale.Protocols()})
}

type connectScaleRequest struct {
	Port     string `json:"port"`
	Protocol string `json:"protocol"`
}

// PostScaleConnect handles POST /api/scale/connect. An empty body reconnects
// to the configured port.
func (h *Handler) PostScaleConnect(c *gin.Context) {
	var req connectScaleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.scale.Connect(req.Port, req.Protocol); err != nil {
		switch {
		case errors.Is(err, scale.ErrAlreadyConnected):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, weighbridge.ErrNoPort), errors.Is(err, scale.ErrUnknownProtocol):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, h.scale.Status())
}

// PostScaleDisconnect handles POST /api/scale/disconnect.
func (h *Handler) PostScaleDisconnect(c *gin.Context) {
	if err := h.scale.Disconnect(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.scale.Status())
}

// PostScaleCapture handles POST /api/scale/capture: registers the last
// stable weight for a vehicle.
func (h *Handler) PostScaleCapture(c *gin.Context) {
	var req weighbridge.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.scale.Capture(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, weighbridge.ErrNoStableWeight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, weighbridge.ErrPlateRequired), errors.Is(err, weighbridge.ErrInvalidTare):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, w)
}
