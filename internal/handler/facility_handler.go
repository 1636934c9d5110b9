package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/internal/service"
)

type FacilityService interface {
	Add(ctx context.Context, in service.FacilityInput) (*model.Facility, error)
	Edit(ctx context.Context, id int, in service.FacilityInput) error
	List(ctx context.Context, search string, page, limit int, all bool) ([]model.Facility, *model.Pagination, error)
	Get(ctx context.Context, id int) (*service.FacilityDetail, error)
	Delete(ctx context.Context, id int) error
	DeleteService(ctx context.Context, facilityID int, role string) error
}

type FacilityHandler struct {
	facilities FacilityService
	logger     *zap.Logger
}

func NewFacilityHandler(facilities FacilityService, logger *zap.Logger) *FacilityHandler {
	return &FacilityHandler{facilities: facilities, logger: logger}
}

// POST /api/admin/add-facility
func (h *FacilityHandler) Add(c *gin.Context) {
	var in service.FacilityInput
	if !bindJSON(c, &in) {
		return
	}

	if _, err := h.facilities.Add(c.Request.Context(), in); err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			reply(c, http.StatusBadRequest, "Facility with this phone or email already exists")
			return
		}
		fail(c, h.logger, err, "Facility not found")
		return
	}
	reply(c, http.StatusOK, "Facility added successfully")
}

// PUT /api/admin/edit-facility/:facility_id
func (h *FacilityHandler) Edit(c *gin.Context) {
	id, ok := pathID(c, "facility_id")
	if !ok {
		return
	}
	var in service.FacilityInput
	if !bindJSON(c, &in) {
		return
	}

	if err := h.facilities.Edit(c.Request.Context(), id, in); err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			reply(c, http.StatusBadRequest, "Facility with this phone number or email already exists")
			return
		}
		fail(c, h.logger, err, "Facility not found")
		return
	}
	reply(c, http.StatusOK, "Facility edited successfully")
}

// GET /api/admin/get-facility?search=&page=&limit=&noPagination=
func (h *FacilityHandler) List(c *gin.Context) {
	page, limit := paging(c)
	all := c.Query("noPagination") == "true"

	list, p, err := h.facilities.List(c.Request.Context(), c.Query("search"), page, limit, all)
	if err != nil {
		fail(c, h.logger, err, "Facility not found")
		return
	}
	if list == nil {
		list = []model.Facility{}
	}

	if all {
		c.JSON(http.StatusOK, gin.H{"facilities": list, "status": http.StatusOK, "noPagination": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"facilities": list, "pagination": p, "status": http.StatusOK})
}

// GET /api/admin/get-facility-by-id/:id
func (h *FacilityHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	d, err := h.facilities.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err, "Facility not found")
		return
	}
	services, coordinators := d.Services, d.Coordinators
	if services == nil {
		services = []model.ShiftTemplate{}
	}
	if coordinators == nil {
		coordinators = []model.Coordinator{}
	}
	c.JSON(http.StatusOK, gin.H{
		"facilities":   d.Facility,
		"services":     services,
		"coordinators": coordinators,
		"status":       http.StatusOK,
	})
}

// DELETE /api/admin/delete-facility/:id
func (h *FacilityHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.facilities.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err, "Facility not found")
		return
	}
	reply(c, http.StatusOK, "Facility deleted successfully")
}

// DELETE /api/admin/delete-service/:id/:role
func (h *FacilityHandler) DeleteService(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.facilities.DeleteService(c.Request.Context(), id, c.Param("role")); err != nil {
		fail(c, h.logger, err, "Service not found")
		return
	}
	reply(c, http.StatusOK, "Service deleted successfully")
}
