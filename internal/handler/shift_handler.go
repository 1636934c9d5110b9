package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/internal/service"
	"shiftdesk/pkg/logger"
)

type ShiftService interface {
	Calendar(ctx context.Context, q service.CalendarQuery) ([]model.CalendarEvent, error)
	List(ctx context.Context, search string, page, limit int) ([]model.ShiftListing, model.Pagination, error)
	Get(ctx context.Context, id int) (*model.Shift, error)
	Add(ctx context.Context, in service.ShiftInput) (*model.Shift, error)
	Edit(ctx context.Context, id int, in service.ShiftInput) error
	Delete(ctx context.Context, id int) error
}

type ShiftHandler struct {
	shifts ShiftService
	logger *zap.Logger
}

func NewShiftHandler(shifts ShiftService, logger *zap.Logger) *ShiftHandler {
	return &ShiftHandler{shifts: shifts, logger: logger}
}

// GET /api/admin/get-shifts?nurseType=&facility=&shift=&status=
func (h *ShiftHandler) Calendar(c *gin.Context) {
	events, err := h.shifts.Calendar(c.Request.Context(), service.CalendarQuery{
		NurseType: c.Query("nurseType"),
		Facility:  c.Query("facility"),
		Shift:     c.Query("shift"),
		Status:    c.Query("status"),
	})
	if err != nil {
		logger.WithTrace(c.Request.Context(), h.logger).Error("Failed to build calendar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shifts"})
		return
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "status": http.StatusOK})
}

// GET /api/admin/get-all-shifts?search=&page=&limit=
func (h *ShiftHandler) List(c *gin.Context) {
	page, limit := paging(c)
	list, p, err := h.shifts.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		fail(c, h.logger, err, "Shift not found")
		return
	}
	if list == nil {
		list = []model.ShiftListing{}
	}
	c.JSON(http.StatusOK, gin.H{
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      p.Total,
		"totalPages": p.TotalPages,
		"shifts":     list,
	})
}

// GET /api/admin/get-shift-by-id/:id
func (h *ShiftHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sh, err := h.shifts.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err, "Shift not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift": sh, "status": http.StatusOK})
}

// POST /api/admin/add-shift
func (h *ShiftHandler) Add(c *gin.Context) {
	var in service.ShiftInput
	if !bindJSON(c, &in) {
		return
	}
	if _, err := h.shifts.Add(c.Request.Context(), in); err != nil {
		fail(c, h.logger, err, "Shift not found")
		return
	}
	reply(c, http.StatusOK, "Shift added successfully")
}

// PUT /api/admin/edit-shift/:id
func (h *ShiftHandler) Edit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ShiftInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.shifts.Edit(c.Request.Context(), id, in); err != nil {
		fail(c, h.logger, err, "Shift not found")
		return
	}
	reply(c, http.StatusOK, "Shift updated successfully")
}

// DELETE /api/admin/delete-shift/:shift_id
func (h *ShiftHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "shift_id")
	if !ok {
		return
	}
	if err := h.shifts.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err, "Shift not found")
		return
	}
	reply(c, http.StatusOK, "Shift deleted successfully")
}
