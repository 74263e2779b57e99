package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appointmentevents "github.com/dentiq/dentiq-backend/internal/appointment/events"
	appointmenthandler "github.com/dentiq/dentiq-backend/internal/appointment/handler"
	appointmentrepo "github.com/dentiq/dentiq-backend/internal/appointment/repository"
	appointmentservice "github.com/dentiq/dentiq-backend/internal/appointment/service"
	authhandler "github.com/dentiq/dentiq-backend/internal/auth/handler"
	"github.com/dentiq/dentiq-backend/internal/auth/jwt"
	authrepo "github.com/dentiq/dentiq-backend/internal/auth/repository"
	authservice "github.com/dentiq/dentiq-backend/internal/auth/service"
	"github.com/dentiq/dentiq-backend/internal/inventory/events"
	"github.com/dentiq/dentiq-backend/internal/inventory/handler"
	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	reportevents "github.com/dentiq/dentiq-backend/internal/reports/events"
	reporthandler "github.com/dentiq/dentiq-backend/internal/reports/handler"
	reportrepo "github.com/dentiq/dentiq-backend/internal/reports/repository"
	reportservice "github.com/dentiq/dentiq-backend/internal/reports/service"
	staffevents "github.com/dentiq/dentiq-backend/internal/staff/events"
	staffhandler "github.com/dentiq/dentiq-backend/internal/staff/handler"
	staffrepo "github.com/dentiq/dentiq-backend/internal/staff/repository"
	staffservice "github.com/dentiq/dentiq-backend/internal/staff/service"
	"github.com/dentiq/dentiq-backend/pkg/config"
	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
	"github.com/dentiq/dentiq-backend/pkg/messaging"
)

const expiryCheckInterval = 12 * time.Hour

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("server", cfg.Server.Environment)
	log.Info().Msg("starting DentIQ backend")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publishers
	inventoryPublisher, err := events.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inventory event publisher")
	}
	staffPublisher, err := staffevents.NewStaffEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create staff event publisher")
	}
	appointmentPublisher, err := appointmentevents.NewAppointmentEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create appointment event publisher")
	}
	reportPublisher, err := reportevents.NewReportEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create report event publisher")
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	receivingRepo := repository.NewReceivingRepository(db)
	userRepo := authrepo.NewUserRepository(db)
	sessionRepo := authrepo.NewSessionRepository(db)
	employeeRepo := staffrepo.NewEmployeeRepository(db)
	leaveRepo := staffrepo.NewLeaveRepository(db)
	shiftRepo := staffrepo.NewShiftRepository(db)
	apptRepo := appointmentrepo.NewAppointmentRepository(db)
	repRepo := reportrepo.NewReportRepository(db)

	// Initialize services
	inventoryService := service.NewInventoryService(db, itemRepo, batchRepo, supplierRepo, activityRepo, inventoryPublisher, log)
	receivingService := service.NewReceivingService(db, receivingRepo, itemRepo, batchRepo, activityRepo, inventoryPublisher, log)
	jwtManager := jwt.NewManager(&cfg.JWT)
	authService := authservice.NewAuthService(userRepo, sessionRepo, jwtManager, log)
	staffService := staffservice.NewStaffService(employeeRepo, leaveRepo, staffPublisher, log)
	leaveService := staffservice.NewLeaveService(leaveRepo, employeeRepo, staffPublisher, log)
	shiftService := staffservice.NewShiftService(shiftRepo, employeeRepo, staffPublisher, log)
	appointmentService := appointmentservice.NewAppointmentService(apptRepo, appointmentPublisher, log)
	reportService := reportservice.NewReportService(repRepo, reportPublisher, log)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(inventoryService, log)
	batchHandler := handler.NewBatchHandler(inventoryService, log)
	summaryHandler := handler.NewSummaryHandler(inventoryService, log)
	supplierHandler := handler.NewSupplierHandler(supplierRepo, log)
	activityHandler := handler.NewActivityHandler(inventoryService, log)
	receivingHandler := handler.NewReceivingHandler(receivingService, inventoryService, log)
	exportHandler := handler.NewExportHandler(inventoryService, log)
	authHandler := authhandler.NewAuthHandler(authService, log)
	employeeHandler := staffhandler.NewEmployeeHandler(staffService, log)
	leaveHandler := staffhandler.NewLeaveHandler(leaveService, log)
	shiftHandler := staffhandler.NewShiftHandler(shiftService, log)
	appointmentHandler := appointmenthandler.NewAppointmentHandler(appointmentService, log)
	reportHandler := reporthandler.NewReportHandler(reportService, log)

	// Start the expiry notification scheduler
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := service.NewExpiryScheduler(inventoryService, expiryCheckInterval, log)
	scheduler.Start(ctx)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "dentiq-backend",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Everything else requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(httputil.Auth(cfg.JWT.Secret, log))

			admin := httputil.RequireRole("admin")

			r.Route("/auth", func(r chi.Router) {
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
				r.Post("/change-password", authHandler.ChangePassword)
				r.With(admin).Post("/register", authHandler.Register)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Route("/items", func(r chi.Router) {
					r.Get("/", itemHandler.List)
					r.Post("/", itemHandler.Create)
					r.Get("/total-value", summaryHandler.TotalValue)
					r.Get("/low-stock", summaryHandler.LowStock)
					r.Get("/expiring-soon", summaryHandler.ExpiringSoon)
					r.Get("/with-batches/{id}", itemHandler.Get)
					r.Get("/by-supplier/{supplierID}", itemHandler.ListBySupplier)
					r.Get("/{id}", itemHandler.Get)
					r.Put("/{id}", itemHandler.Update)
					r.Delete("/{id}", itemHandler.Delete)
					r.Get("/{id}/batches", batchHandler.ListByItem)
					r.Post("/{id}/batches", batchHandler.Create)
				})

				r.Route("/batches", func(r chi.Router) {
					r.Get("/{id}", batchHandler.Get)
					r.Put("/{id}", batchHandler.Update)
					r.Delete("/{id}", batchHandler.Delete)
					r.Post("/{id}/issue", batchHandler.IssueStock)
					r.Get("/{id}/adjustments", batchHandler.ListAdjustments)
				})

				r.Route("/stock-receiving", func(r chi.Router) {
					r.Get("/", receivingHandler.List)
					r.Post("/", receivingHandler.Create)
					r.Get("/{id}", receivingHandler.Get)
					r.Put("/{id}", receivingHandler.Update)
					r.Delete("/{id}", receivingHandler.Delete)
					r.Get("/{id}/pdf", receivingHandler.ExportPDF)
				})

				r.Route("/suppliers", func(r chi.Router) {
					r.Get("/", supplierHandler.List)
					r.Post("/", supplierHandler.Create)
					r.Get("/{id}", supplierHandler.Get)
					r.Put("/{id}", supplierHandler.Update)
					r.Delete("/{id}", supplierHandler.Delete)
				})

				r.Route("/sub-categories", func(r chi.Router) {
					r.Get("/", supplierHandler.ListSubCategories)
					r.Post("/", supplierHandler.CreateSubCategory)
					r.Get("/{id}", supplierHandler.GetSubCategory)
					r.Put("/{id}", supplierHandler.UpdateSubCategory)
					r.Delete("/{id}", supplierHandler.DeleteSubCategory)
				})

				r.Get("/summary", summaryHandler.Get)

				r.With(admin).Get("/activity", activityHandler.List)
				r.With(admin).Get("/activity/{resource}/{id}", activityHandler.ListByResource)

				r.Get("/export/register", exportHandler.ExportStockRegister)
			})

			r.Route("/staff", func(r chi.Router) {
				r.Route("/employees", func(r chi.Router) {
					r.Get("/", employeeHandler.List)
					r.With(admin).Post("/", employeeHandler.Create)
					r.Get("/{id}", employeeHandler.Get)
					r.With(admin).Put("/{id}", employeeHandler.Update)
					r.With(admin).Put("/{id}/status", employeeHandler.UpdateStatus)
					r.With(admin).Delete("/{id}", employeeHandler.Delete)
					r.Get("/{id}/leave-balance", leaveHandler.Balance)
				})

				r.Route("/leave", func(r chi.Router) {
					r.Get("/", leaveHandler.List)
					r.Post("/", leaveHandler.Create)
					r.Get("/{id}", leaveHandler.Get)
					r.With(admin).Post("/{id}/approve", leaveHandler.Approve)
					r.With(admin).Post("/{id}/reject", leaveHandler.Reject)
					r.Post("/{id}/cancel", leaveHandler.Cancel)
				})

				r.Route("/shifts", func(r chi.Router) {
					r.Get("/", shiftHandler.List)
					r.With(admin).Post("/", shiftHandler.Create)
					r.Get("/{id}", shiftHandler.Get)
					r.With(admin).Put("/{id}", shiftHandler.Update)
					r.With(admin).Delete("/{id}", shiftHandler.Delete)
				})
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Get("/", appointmentHandler.List)
				r.Post("/", appointmentHandler.Create)
				r.Get("/{id}", appointmentHandler.Get)
				r.Put("/{id}/reschedule", appointmentHandler.Reschedule)
				r.Post("/{id}/status", appointmentHandler.UpdateStatus)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", reportHandler.List)
				r.Post("/", reportHandler.Create)
				r.Get("/{id}", reportHandler.Get)
				r.Put("/{id}", reportHandler.Update)
				r.Post("/{id}/finalize", reportHandler.Finalize)
				r.Delete("/{id}", reportHandler.Delete)
				r.Get("/{id}/pdf", reportHandler.ExportPDF)
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop background work before closing connections
	scheduler.Stop()
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
