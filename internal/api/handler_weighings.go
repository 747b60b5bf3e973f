package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"enturne-backend/internal/model"
	"enturne-backend/internal/parse"
	"enturne-backend/internal/store"
)

const (
	maxWeighingLimit = 1000
	reportTimeLayout = "02/01/2006 15:04"
)

var weighingCSVHeader = []string{"ID", "Ticket", "Placa", "Peso", "Unidad", "Proceso", "Fecha", "Estable"}

// weighingFilter reads date, plate, process and limit query parameters.
func (h *Handler) weighingFilter(c *gin.Context) (store.WeighingFilter, error) {
	var f store.WeighingFilter

	if raw := c.Query("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, h.opts.Location)
		if err != nil {
			return f, errors.New("Invalid date, expected YYYY-MM-DD")
		}
		f.Date = &d
	}
	f.Plate = parse.Plate(c.Query("plate"))
	f.Process = c.Query("process")

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return f, errors.New("Invalid limit")
		}
		f.Limit = min(limit, maxWeighingLimit)
	}
	return f, nil
}

// GetWeighings handles GET /api/weighings.
func (h *Handler) GetWeighings(c *gin.Context) {
	f, err := h.weighingFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	weighings, err := h.store.ListWeighings(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve weighings"})
		return
	}
	if weighings == nil {
		weighings = []model.Weighing{}
	}
	c.JSON(http.StatusOK, gin.H{"weighings": weighings})
}

// GetWeighingStats handles GET /api/weighings/stats.
func (h *Handler) GetWeighingStats(c *gin.Context) {
	f, err := h.weighingFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.store.WeighingStats(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportWeighings handles GET /api/weighings/export: the day's report as CSV.
// Without a date it exports today.
func (h *Handler) ExportWeighings(c *gin.Context) {
	f, err := h.weighingFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if f.Date == nil {
		today := time.Now().In(h.opts.Location)
		f.Date = &today
	}
	f.Limit = maxWeighingLimit

	weighings, err := h.store.ListWeighings(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve weighings"})
		return
	}

	fileName := fmt.Sprintf("reporte_pesajes_%s.csv", f.Date.Format("02_01_2006"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(weighingCSVHeader); err != nil {
		c.Error(err)
		return
	}
	for _, wg := range weighings {
		if err := w.Write(h.weighingRow(wg)); err != nil {
			c.Error(err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		c.Error(err)
	}
}

func (h *Handler) weighingRow(w model.Weighing) []string {
	stable := "No"
	if w.Stable {
		stable = "Sí"
	}
	return []string{
		strconv.FormatInt(w.ID, 10),
		w.Ticket.String(),
		w.Plate,
		w.Weight.String(),
		w.Unit,
		w.Process,
		w.WeighedAt.In(h.opts.Location).Format(reportTimeLayout),
		stable,
	}
}
