package handlers

import (
	"net/http"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/pkg/utils"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/services/dive"
	"github.com/gin-gonic/gin"
)

type DiveHandler struct {
	diveService dive.DiveService
}

func NewDiveHandler(diveService dive.DiveService) *DiveHandler {
	return &DiveHandler{diveService: diveService}
}

// Times accept RFC 3339 or a zone-less ISO 8601 timestamp, read as UTC.
var diveTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseDiveTime(s string) (time.Time, bool) {
	for _, layout := range diveTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

type CreateDiveRequest struct {
	DiveNumber  *int    `json:"dive_number" binding:"omitempty,min=0"`
	StartTime   string  `json:"start_time" binding:"required"`
	EndTime     string  `json:"end_time" binding:"required"`
	MaxDepth    float64 `json:"max_depth" binding:"required,gt=0"`
	WeightBelt  string  `json:"weight_belt" binding:"max=50"`
	Equipment   string  `json:"equipment" binding:"max=255"`
	Visibility  string  `json:"visibility" binding:"max=50"`
	Weather     string  `json:"weather" binding:"max=100"`
	Location    string  `json:"location" binding:"required,max=255"`
	DivePartner string  `json:"dive_partner" binding:"max=255"`
	Notes       string  `json:"notes"`
}

type UpdateDiveRequest struct {
	DiveNumber  *int     `json:"dive_number" binding:"omitempty,min=0"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	MaxDepth    *float64 `json:"max_depth" binding:"omitempty,gt=0"`
	WeightBelt  *string  `json:"weight_belt" binding:"omitempty,max=50"`
	Equipment   *string  `json:"equipment" binding:"omitempty,max=255"`
	Visibility  *string  `json:"visibility" binding:"omitempty,max=50"`
	Weather     *string  `json:"weather" binding:"omitempty,max=100"`
	Location    *string  `json:"location" binding:"omitempty,max=255"`
	DivePartner *string  `json:"dive_partner" binding:"omitempty,max=255"`
	Notes       *string  `json:"notes"`
}

// CreateDive POST /api/v1/dives
func (h *DiveHandler) CreateDive(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreateDiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}
	start, ok1 := parseDiveTime(req.StartTime)
	end, ok2 := parseDiveTime(req.EndTime)
	if !ok1 || !ok2 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "start_time and end_time must be ISO 8601 timestamps")
		return
	}

	d, err := h.diveService.Create(c.Request.Context(), userID, dive.DiveInput{
		DiveNumber:  req.DiveNumber,
		StartTime:   start,
		EndTime:     end,
		MaxDepth:    req.MaxDepth,
		WeightBelt:  req.WeightBelt,
		Equipment:   req.Equipment,
		Visibility:  req.Visibility,
		Weather:     req.Weather,
		Location:    req.Location,
		DivePartner: req.DivePartner,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, "CreateDive", err, "Failed to create dive")
		return
	}
	xerr.Success(c, http.StatusCreated, "Dive created", d)
}

// ListDives GET /api/v1/dives
func (h *DiveHandler) ListDives(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	dives, err := h.diveService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "ListDives", err, "Failed to list dives")
		return
	}
	xerr.Success(c, http.StatusOK, "Dives retrieved", dives)
}

// GetDive GET /api/v1/dives/:dive_id, behind DiveOwnerRequired.
func (h *DiveHandler) GetDive(c *gin.Context) {
	d, ok := utils.GetDiveFromContext(c)
	if !ok {
		return
	}
	xerr.Success(c, http.StatusOK, "Dive retrieved", d)
}

// UpdateDive PUT /api/v1/dives/:dive_id
func (h *DiveHandler) UpdateDive(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	diveID, ok := parseIDParam(c, "dive_id")
	if !ok {
		return
	}

	var req UpdateDiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}
	in := dive.DiveUpdate{
		DiveNumber:  req.DiveNumber,
		MaxDepth:    req.MaxDepth,
		WeightBelt:  req.WeightBelt,
		Equipment:   req.Equipment,
		Visibility:  req.Visibility,
		Weather:     req.Weather,
		Location:    req.Location,
		DivePartner: req.DivePartner,
		Notes:       req.Notes,
	}
	for _, f := range []struct {
		raw *string
		dst **time.Time
	}{{req.StartTime, &in.StartTime}, {req.EndTime, &in.EndTime}} {
		if f.raw == nil {
			continue
		}
		t, ok := parseDiveTime(*f.raw)
		if !ok {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "start_time and end_time must be ISO 8601 timestamps")
			return
		}
		*f.dst = &t
	}

	d, err := h.diveService.Update(c.Request.Context(), diveID, userID, in)
	if err != nil {
		respondError(c, "UpdateDive", err, "Failed to update dive")
		return
	}
	xerr.Success(c, http.StatusOK, "Dive updated", d)
}

// DeleteDive DELETE /api/v1/dives/:dive_id. Shares of the dive go with it.
func (h *DiveHandler) DeleteDive(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	diveID, ok := parseIDParam(c, "dive_id")
	if !ok {
		return
	}

	if err := h.diveService.Delete(c.Request.Context(), diveID, userID); err != nil {
		respondError(c, "DeleteDive", err, "Failed to delete dive")
		return
	}
	c.Status(http.StatusNoContent)
}
