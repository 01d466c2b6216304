package handler

import (
	"net/http"

	"upkeep/internal/domain"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceRepo *repository.DeviceRepository
	ticketRepo *repository.TicketRepository
}

func NewDeviceHandler(deviceRepo *repository.DeviceRepository, ticketRepo *repository.TicketRepository) *DeviceHandler {
	return &DeviceHandler{deviceRepo: deviceRepo, ticketRepo: ticketRepo}
}

func (h *DeviceHandler) Create(c *gin.Context) {
	var req struct {
		AssetTag string `json:"asset_tag" binding:"required"`
		Name     string `json:"name" binding:"required"`
		Model    string `json:"model"`
		Sector   string `json:"sector"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if existing, _ := h.deviceRepo.GetByAssetTag(req.AssetTag); existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "asset tag already registered"})
		return
	}
	d := &models.Device{
		AssetTag: req.AssetTag,
		Name:     req.Name,
		Model:    req.Model,
		Sector:   req.Sector,
		Notes:    req.Notes,
		Status:   domain.DeviceStatusActive,
	}
	if err := h.deviceRepo.Create(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DeviceHandler) List(c *gin.Context) {
	limit, offset := pagination(c, 50)
	list, err := h.deviceRepo.List(c.Query("sector"), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": list})
}

func (h *DeviceHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}
	d, err := h.deviceRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeviceHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}
	d, err := h.deviceRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	var req struct {
		Name   *string `json:"name"`
		Model  *string `json:"model"`
		Sector *string `json:"sector"`
		Status *string `json:"status" binding:"omitempty,oneof=ACTIVE IN_REPAIR RETIRED"`
		Notes  *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Model != nil {
		d.Model = *req.Model
	}
	if req.Sector != nil {
		d.Sector = *req.Sector
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}
	if err := h.deviceRepo.Update(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeviceHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}
	if err := h.deviceRepo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Tickets lists the device's ticket history.
func (h *DeviceHandler) Tickets(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}
	limit, offset := pagination(c, 20)
	list, err := h.ticketRepo.ListByDeviceID(id, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": list})
}
