package handler

import (
	"net/http"
	"strconv"

	"upkeep/internal/middleware"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	budgetRepo *repository.BudgetRepository
}

func NewBudgetHandler(budgetRepo *repository.BudgetRepository) *BudgetHandler {
	return &BudgetHandler{budgetRepo: budgetRepo}
}

func (h *BudgetHandler) CreateLine(c *gin.Context) {
	var req struct {
		Sector       string `json:"sector" binding:"required"`
		Year         int    `json:"year" binding:"required,min=2000"`
		PlannedCents int64  `json:"planned_cents" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	line := &models.BudgetLine{
		Sector:       req.Sector,
		Year:         req.Year,
		PlannedCents: req.PlannedCents,
	}
	if err := h.budgetRepo.CreateLine(line); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "budget line for sector/year already exists"})
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *BudgetHandler) ListLines(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	lines, err := h.budgetRepo.ListLines(year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	out := make([]gin.H, 0, len(lines))
	for _, l := range lines {
		consumed, err := h.budgetRepo.ConsumedCents(l.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		out = append(out, gin.H{
			"line":            l,
			"consumed_cents":  consumed,
			"remaining_cents": l.PlannedCents - consumed,
		})
	}
	c.JSON(http.StatusOK, gin.H{"lines": out})
}

func (h *BudgetHandler) CreateEntry(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}
	if _, err := h.budgetRepo.GetLineByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "budget line not found"})
		return
	}
	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e := &models.BudgetEntry{
		LineID:         id,
		CollaboratorID: middleware.GetCollaboratorID(c),
		AmountCents:    req.AmountCents,
		Description:    req.Description,
	}
	if err := h.budgetRepo.CreateEntry(e); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *BudgetHandler) ListEntries(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}
	limit, offset := pagination(c, 50)
	list, err := h.budgetRepo.ListEntries(id, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": list})
}
