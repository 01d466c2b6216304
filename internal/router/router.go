package router

import (
	"time"

	"upkeep/config"
	"upkeep/internal/handler"
	"upkeep/internal/middleware"
	"upkeep/internal/repository"
	"upkeep/internal/service"
	"upkeep/internal/ws"
	"upkeep/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers, and returns the engine
// plus the background workers main has to start.
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) (*gin.Engine, *handler.AttendanceGateway, *service.Reconciler) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	collabRepo := repository.NewCollaboratorRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	actionRepo := repository.NewActionRepository(db)
	maintRepo := repository.NewMaintenanceRepository(db)
	stockRepo := repository.NewStockRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)

	// Realtime state
	hub := ws.NewHub()
	presence := ws.NewPresenceRegistry()

	// Services
	authSvc := service.NewAuthService(cfg, collabRepo)
	attendanceSvc := service.NewAttendanceService(db, attendanceRepo, ticketRepo, actionRepo, collabRepo, cfg.Attendance.StalenessWindow)
	reconciler := service.NewReconciler(attendanceRepo, ticketRepo, cfg.Attendance.StalenessWindow, cfg.Attendance.SweepInterval)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, collabRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	deviceHandler := handler.NewDeviceHandler(deviceRepo, ticketRepo)
	ticketHandler := handler.NewTicketHandler(ticketRepo, deviceRepo, actionRepo, attendanceSvc)
	maintHandler := handler.NewMaintenanceHandler(maintRepo, deviceRepo)
	stockHandler := handler.NewStockHandler(stockRepo)
	budgetHandler := handler.NewBudgetHandler(budgetRepo)
	uploadHandler := handler.NewUploadHandler(cloud)
	gateway := handler.NewAttendanceGateway(&cfg.JWT, hub, presence, attendanceSvc, cfg.Attendance.TimerSyncInterval)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole("ADMIN")

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authMw, adminMw, authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		api.GET("/me", authMw, authHandler.Me)
		api.GET("/collaborators", authMw, authHandler.ListCollaborators)

		devices := api.Group("/devices")
		devices.Use(authMw)
		{
			devices.POST("", adminMw, deviceHandler.Create)
			devices.GET("", deviceHandler.List)
			devices.GET("/:id", deviceHandler.Get)
			devices.PATCH("/:id", adminMw, deviceHandler.Update)
			devices.DELETE("/:id", adminMw, deviceHandler.Delete)
			devices.GET("/:id/tickets", deviceHandler.Tickets)
		}

		tickets := api.Group("/tickets")
		tickets.Use(authMw)
		{
			tickets.POST("", ticketHandler.Create)
			tickets.GET("", ticketHandler.List)
			tickets.GET("/:id", ticketHandler.Get)
			tickets.POST("/:id/start", ticketHandler.StartAttendance)
			tickets.POST("/:id/finish", ticketHandler.FinishAttendance)
			tickets.POST("/:id/cancel", ticketHandler.CancelAttendance)
			tickets.POST("/:id/transfer", ticketHandler.TransferAttendance)
		}
		api.GET("/attendances/active", authMw, ticketHandler.ActiveAttendances)
		api.GET("/detractors", authMw, ticketHandler.ListDetractors)
		api.POST("/detractors", authMw, adminMw, ticketHandler.CreateDetractor)

		maintenance := api.Group("/maintenance")
		maintenance.Use(authMw)
		{
			maintenance.POST("/logs", maintHandler.OpenLog)
			maintenance.GET("/logs", maintHandler.ListLogs)
			maintenance.GET("/logs/:id", maintHandler.GetLog)
			maintenance.POST("/logs/:id/close", maintHandler.CloseLog)
			maintenance.PATCH("/items/:item_id", maintHandler.ToggleItem)
		}

		stock := api.Group("/stock")
		stock.Use(authMw)
		{
			stock.POST("/items", adminMw, stockHandler.CreateItem)
			stock.GET("/items", stockHandler.ListItems)
			stock.GET("/items/low", stockHandler.ListBelowMinimum)
			stock.POST("/items/:id/movements", stockHandler.RecordMovement)
			stock.GET("/items/:id/movements", stockHandler.ListMovements)
		}

		budget := api.Group("/budget")
		budget.Use(authMw)
		{
			budget.POST("/lines", adminMw, budgetHandler.CreateLine)
			budget.GET("/lines", budgetHandler.ListLines)
			budget.POST("/lines/:id/entries", budgetHandler.CreateEntry)
			budget.GET("/lines/:id/entries", budgetHandler.ListEntries)
		}

		api.POST("/uploads", authMw, uploadHandler.UploadAttachment)
	}

	r.GET("/ws/attendance", gateway.Upgrade())

	return r, gateway, reconciler
}
