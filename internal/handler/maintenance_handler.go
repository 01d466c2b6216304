package handler

import (
	"net/http"
	"time"

	"upkeep/internal/domain"
	"upkeep/internal/middleware"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"github.com/gin-gonic/gin"
)

type MaintenanceHandler struct {
	maintRepo  *repository.MaintenanceRepository
	deviceRepo *repository.DeviceRepository
}

func NewMaintenanceHandler(maintRepo *repository.MaintenanceRepository, deviceRepo *repository.DeviceRepository) *MaintenanceHandler {
	return &MaintenanceHandler{maintRepo: maintRepo, deviceRepo: deviceRepo}
}

// OpenLog starts a preventive round on a device with its checklist.
func (h *MaintenanceHandler) OpenLog(c *gin.Context) {
	var req struct {
		DeviceID uint     `json:"device_id" binding:"required"`
		Period   string   `json:"period" binding:"required"`
		Items    []string `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.deviceRepo.GetByID(req.DeviceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown device"})
		return
	}
	items := make([]models.ChecklistItem, 0, len(req.Items))
	for _, label := range req.Items {
		items = append(items, models.ChecklistItem{Label: label})
	}
	l := &models.MaintenanceLog{
		DeviceID:    req.DeviceID,
		PerformedBy: middleware.GetCollaboratorID(c),
		Period:      req.Period,
		Status:      domain.MaintenanceStatusOpen,
		Items:       items,
	}
	if err := h.maintRepo.CreateLog(l); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *MaintenanceHandler) ListLogs(c *gin.Context) {
	limit, offset := pagination(c, 20)
	var deviceID uint
	if v, ok := uintQuery(c, "device_id"); ok {
		deviceID = v
	}
	list, err := h.maintRepo.ListLogs(deviceID, c.Query("period"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": list})
}

func (h *MaintenanceHandler) GetLog(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}
	l, err := h.maintRepo.GetLogByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "log not found"})
		return
	}
	c.JSON(http.StatusOK, l)
}

// ToggleItem checks or unchecks one checklist item.
func (h *MaintenanceHandler) ToggleItem(c *gin.Context) {
	itemID, ok := uintParam(c, "item_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	var req struct {
		Done *bool `json:"done" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.maintRepo.SetItemDone(itemID, *req.Done); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": itemID, "done": *req.Done})
}

// CloseLog marks the round DONE; every item must be checked off first.
func (h *MaintenanceHandler) CloseLog(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}
	if _, err := h.maintRepo.GetLogByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "log not found"})
		return
	}
	pending, err := h.maintRepo.CountPendingItems(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "close failed"})
		return
	}
	if pending > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "checklist has unchecked items"})
		return
	}
	if err := h.maintRepo.CloseLog(id, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "close failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"log_id": id, "status": domain.MaintenanceStatusDone})
}
