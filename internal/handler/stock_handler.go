package handler

import (
	"errors"
	"net/http"

	"upkeep/internal/middleware"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockRepo *repository.StockRepository
}

func NewStockHandler(stockRepo *repository.StockRepository) *StockHandler {
	return &StockHandler{stockRepo: stockRepo}
}

func (h *StockHandler) CreateItem(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Unit     string `json:"unit" binding:"required"`
		Quantity int64  `json:"quantity" binding:"min=0"`
		MinLevel int64  `json:"min_level" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := &models.StockItem{
		Name:     req.Name,
		Unit:     req.Unit,
		Quantity: req.Quantity,
		MinLevel: req.MinLevel,
	}
	if err := h.stockRepo.CreateItem(item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *StockHandler) ListItems(c *gin.Context) {
	limit, offset := pagination(c, 50)
	list, err := h.stockRepo.ListItems(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *StockHandler) ListBelowMinimum(c *gin.Context) {
	list, err := h.stockRepo.ListBelowMinimum()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// RecordMovement registers an IN/OUT and adjusts the quantity atomically.
func (h *StockHandler) RecordMovement(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	var req struct {
		Type     string `json:"type" binding:"required,oneof=IN OUT"`
		Quantity int64  `json:"quantity" binding:"required,min=1"`
		Reason   string `json:"reason"`
		TicketID *uint  `json:"ticket_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := &models.StockMovement{
		ItemID:         id,
		CollaboratorID: middleware.GetCollaboratorID(c),
		TicketID:       req.TicketID,
		Type:           req.Type,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
	}
	if err := h.stockRepo.RecordMovement(m); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "movement failed"})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	limit, offset := pagination(c, 50)
	list, err := h.stockRepo.ListMovements(id, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": list})
}
