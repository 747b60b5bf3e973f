package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"enturne-backend/internal/folio"
	"enturne-backend/internal/model"
	"enturne-backend/internal/parse"
	"enturne-backend/internal/query"
	"enturne-backend/internal/store"
)

type vehicleListResponse struct {
	query.Result
	Folio int    `json:"folio"`
	Date  string `json:"date"`
}

const maxPageSize = 500

// GetVehicles handles GET /api/vehicles: the day's queue with filter,
// search, pagination and the stat-card totals.
func (h *Handler) GetVehicles(c *gin.Context) {
	f, err := h.folioParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := intQuery(c, "page", 1)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	pageSize, err := intQuery(c, "page_size", h.opts.PageSize)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid page size"})
		return
	}
	pageSize = min(pageSize, maxPageSize)

	vehicles, err := h.store.ListVehicles(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vehicles"})
		return
	}

	result := query.Run(vehicles, query.Query{
		Bucket:   query.ParseBucket(c.Query("filter")),
		Search:   c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	})

	c.JSON(http.StatusOK, vehicleListResponse{
		Result: result,
		Folio:  f,
		Date:   folio.ToDate(f).Format(time.DateOnly),
	})
}

func (h *Handler) folioParam(c *gin.Context) (int, error) {
	if raw := c.Query("folio"); raw != "" {
		f, err := strconv.Atoi(raw)
		if err != nil || f < 2 {
			return 0, errors.New("Invalid folio")
		}
		return f, nil
	}
	if raw := c.Query("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, h.opts.Location)
		if err != nil {
			return 0, errors.New("Invalid date, expected YYYY-MM-DD")
		}
		return folio.FromDate(d), nil
	}
	return folio.Today(h.opts.Location), nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func vehicleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return 0, false
	}
	return id, true
}

// GetVehicle handles GET /api/vehicles/:id.
func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	v, err := h.store.GetVehicle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, v)
}

type putVehicleRequest struct {
	NationalID    string `json:"nationalId"`
	DriverName    string `json:"driverName" binding:"required"`
	Plate         string `json:"plate" binding:"required"`
	Trailer       string `json:"trailer"`
	ProductGroup  string `json:"productGroup"`
	Product       string `json:"product"`
	Process       string `json:"process"`
	Client        string `json:"client"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Manifest      string `json:"manifest"`
	AxleCount     *int   `json:"axleCount" binding:"omitempty,min=0"`
	PackagingType string `json:"packagingType"`
	Status        string `json:"status" binding:"required"`
}

// PutVehicle handles PUT /api/vehicles/:id, the edit form of the queue.
func (h *Handler) PutVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req putVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !model.IsKnownStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(req.Status)})
		return
	}
	cedula, err := parse.Cedula(req.NationalID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plate := parse.Plate(req.Plate)
	if plate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plate is required"})
		return
	}

	v := &model.Vehicle{
		ID:            id,
		NationalID:    optional(cedula),
		DriverName:    optional(req.DriverName),
		Plate:         &plate,
		Trailer:       optional(parse.Plate(req.Trailer)),
		ProductGroup:  optional(req.ProductGroup),
		Product:       optional(req.Product),
		Process:       optional(req.Process),
		Client:        optional(req.Client),
		Origin:        optional(req.Origin),
		Destination:   optional(req.Destination),
		Manifest:      optional(req.Manifest),
		AxleCount:     req.AxleCount,
		PackagingType: optional(req.PackagingType),
		Status:        req.Status,
	}

	changed, err := h.store.UpdateVehicle(c.Request.Context(), v)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if changed && h.notifier != nil {
		h.notifier.Dispatch(id)
	}

	updated, err := h.store.GetVehicle(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// optional maps blank form fields to NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// GetStatuses handles GET /api/vehicles/statuses.
func (h *Handler) GetStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statuses":       model.Statuses(),
		"packagingTypes": model.PackagingTypes(),
	})
}
