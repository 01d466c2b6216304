package handler

import (
	"errors"
	"log"
	"net/http"

	"upkeep/internal/domain"
	"upkeep/internal/middleware"
	"upkeep/internal/models"
	"upkeep/internal/repository"
	"upkeep/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TicketHandler struct {
	ticketRepo *repository.TicketRepository
	deviceRepo *repository.DeviceRepository
	actionRepo *repository.ActionRepository
	svc        *service.AttendanceService
}

func NewTicketHandler(
	ticketRepo *repository.TicketRepository,
	deviceRepo *repository.DeviceRepository,
	actionRepo *repository.ActionRepository,
	svc *service.AttendanceService,
) *TicketHandler {
	return &TicketHandler{
		ticketRepo: ticketRepo,
		deviceRepo: deviceRepo,
		actionRepo: actionRepo,
		svc:        svc,
	}
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req struct {
		DeviceID uint   `json:"device_id" binding:"required"`
		Problem  string `json:"problem" binding:"required"`
		Priority string `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.deviceRepo.GetByID(req.DeviceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown device"})
		return
	}
	t := &models.Ticket{
		DeviceID:   req.DeviceID,
		ReporterID: middleware.GetCollaboratorID(c),
		Problem:    req.Problem,
		Priority:   req.Priority,
		Status:     domain.TicketStatusOpen,
	}
	if err := h.ticketRepo.Create(t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	limit, offset := pagination(c, 20)
	list, err := h.ticketRepo.List(c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": list})
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	t, err := h.ticketRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// StartAttendance claims the ticket for the authenticated collaborator.
func (h *TicketHandler) StartAttendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	row, err := h.svc.Start(id, middleware.GetCollaboratorID(c))
	if err != nil {
		h.replyAttendanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// FinishAttendance closes the ticket with an outcome action.
func (h *TicketHandler) FinishAttendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	var req struct {
		DetractorID uint   `json:"detractor_id" binding:"required"`
		Note        string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.Finish(id, req.DetractorID, req.Note)
	if err != nil {
		h.replyAttendanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelAttendance abandons the open attendance. Repeating it is harmless:
// the second call reports cancelled=false.
func (h *TicketHandler) CancelAttendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	cancelled, err := h.svc.Cancel(id)
	if err != nil {
		h.replyAttendanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": id, "cancelled": cancelled})
}

// TransferAttendance hands the ticket to another collaborator.
func (h *TicketHandler) TransferAttendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	var req struct {
		ToCollaboratorID uint `json:"to_collaborator_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.Transfer(id, middleware.GetCollaboratorID(c), req.ToCollaboratorID)
	if err != nil {
		h.replyAttendanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ActiveAttendances returns one row per attended ticket.
func (h *TicketHandler) ActiveAttendances(c *gin.Context) {
	rows, err := h.svc.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendances": rows})
}

// ListDetractors feeds the finish form.
func (h *TicketHandler) ListDetractors(c *gin.Context) {
	list, err := h.actionRepo.ListDetractors()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detractors": list})
}

func (h *TicketHandler) CreateDetractor(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := &models.Detractor{Name: req.Name}
	if err := h.actionRepo.CreateDetractor(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, d)
}

// replyAttendanceError maps ledger failures onto the REST taxonomy:
// conflicts 409, missing attendance/ticket 404, bad input 400, anything else
// is logged and reported as 500.
func (h *TicketHandler) replyAttendanceError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	var validation *service.ValidationError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Reason})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason})
	case errors.Is(err, service.ErrTicketNotFound), errors.Is(err, service.ErrNoOpenAttendance), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("ticket attendance: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
