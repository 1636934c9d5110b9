package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/internal/service"
)

type NurseService interface {
	List(ctx context.Context, search string, page, limit int) ([]model.Nurse, model.Pagination, error)
	Get(ctx context.Context, id int) (*model.Nurse, error)
	Add(ctx context.Context, in service.NurseInput) (*model.Nurse, error)
	Edit(ctx context.Context, id int, in service.NurseInput) error
	Delete(ctx context.Context, id int) error
	Available(ctx context.Context, q service.AvailabilityQuery) ([]model.Nurse, error)
}

type NurseHandler struct {
	nurses NurseService
	logger *zap.Logger
}

func NewNurseHandler(nurses NurseService, logger *zap.Logger) *NurseHandler {
	return &NurseHandler{nurses: nurses, logger: logger}
}

// GET /api/admin/get-nurses?search=&page=&limit=
func (h *NurseHandler) List(c *gin.Context) {
	page, limit := paging(c)
	list, p, err := h.nurses.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		fail(c, h.logger, err, "Nurse not found")
		return
	}
	if list == nil {
		list = []model.Nurse{}
	}
	c.JSON(http.StatusOK, gin.H{"nurses": list, "pagination": p, "status": http.StatusOK})
}

// GET /api/admin/get-nurse-by-id/:id
func (h *NurseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.nurses.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err, "Nurse not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"nurseData": n, "status": http.StatusOK})
}

// duplicate answers 400 with the nurse already holding the email or phone.
func duplicate(c *gin.Context, err error) bool {
	var dup *service.DuplicateNurseError
	if !errors.As(err, &dup) {
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"message": "Nurse with this email or phone number already exists",
		"status":  http.StatusBadRequest,
		"nurse":   dup.Nurse,
	})
	return true
}

// POST /api/admin/add-nurse
func (h *NurseHandler) Add(c *gin.Context) {
	var in service.NurseInput
	if !bindJSON(c, &in) {
		return
	}
	if _, err := h.nurses.Add(c.Request.Context(), in); err != nil {
		if !duplicate(c, err) {
			fail(c, h.logger, err, "Nurse not found")
		}
		return
	}
	reply(c, http.StatusOK, "Nurse added successfully")
}

// PUT /api/admin/edit-nurse/:id
func (h *NurseHandler) Edit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.NurseInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.nurses.Edit(c.Request.Context(), id, in); err != nil {
		if !duplicate(c, err) {
			fail(c, h.logger, err, "Nurse not found")
		}
		return
	}
	reply(c, http.StatusOK, "Nurse updated successfully")
}

// DELETE /api/admin/delete-nurse/:id
func (h *NurseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.nurses.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err, "Nurse not found")
		return
	}
	reply(c, http.StatusOK, "Nurse deleted successfully")
}

// GET /api/admin/get-available-nurses?facility_id=&nurse_type=&date=&shift=
func (h *NurseHandler) Available(c *gin.Context) {
	facilityID, err := strconv.Atoi(c.Query("facility_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Facility not found."})
		return
	}
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		reply(c, http.StatusBadRequest, "invalid date parameter")
		return
	}

	nurses, err := h.nurses.Available(c.Request.Context(), service.AvailabilityQuery{
		FacilityID: facilityID,
		NurseType:  c.Query("nurse_type"),
		Shift:      c.Query("shift"),
		Date:       date,
	})
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Facility not found."})
		return
	case errors.Is(err, service.ErrLocationIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Facility location incomplete."})
		return
	case err != nil:
		fail(c, h.logger, err, "Facility not found.")
		return
	}
	if nurses == nil {
		nurses = []model.Nurse{}
	}
	c.JSON(http.StatusOK, gin.H{"nurses": nurses, "status": http.StatusOK})
}
