// Package http provides the HTTP adapter for the application layer. It is a
// thin translation layer: bind the request, resolve the actor, call one
// service method, map the error.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clearhr/claimflow/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	JWTSecret        string
	CORSAllowOrigin  string
	RateLimitRPS     float64
	RateLimitBurst   int
	AdminIPWhitelist []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		CORSAllowOrigin: "*",
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// Services bundles the application services the HTTP layer exposes
type Services struct {
	Claims     service.ClaimService
	Requests   service.TravelRequestService
	Advances   service.AdvanceService
	Goals      service.GoalService
	PIPs       service.PIPService
	Loans      service.LoanService
	Employees  service.EmployeeService
	Policies   service.PolicyService
	Appraisals service.AppraisalService
	Tax        service.TaxService
	Audit      service.AuditService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.rateLimitMiddleware())
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	api.Use(s.actorMiddleware())
	{
		claims := api.Group("/claims")
		{
			claims.POST("", handlers.CreateClaim)
			claims.GET("", handlers.ListClaims)
			claims.GET("/:id", handlers.GetClaim)
			claims.DELETE("/:id", handlers.DeleteClaim)
			claims.POST("/:id/submit", handlers.SubmitClaim)
			claims.POST("/:id/approve", handlers.ApproveClaim)
			claims.POST("/:id/reject", handlers.RejectClaim)
			claims.POST("/:id/settle", handlers.SettleClaim)
			claims.POST("/:id/validate", handlers.ValidateClaim)
		}

		requests := api.Group("/travel-requests")
		{
			requests.POST("", handlers.CreateTravelRequest)
			requests.GET("", handlers.ListTravelRequests)
			requests.GET("/:id", handlers.GetTravelRequest)
			requests.DELETE("/:id", handlers.DeleteTravelRequest)
			requests.POST("/:id/submit", handlers.SubmitTravelRequest)
			requests.POST("/:id/approve", handlers.ApproveTravelRequest)
			requests.POST("/:id/reject", handlers.RejectTravelRequest)
		}

		advances := api.Group("/advances")
		{
			advances.POST("", handlers.CreateAdvance)
			advances.GET("/:id", handlers.GetAdvance)
			advances.POST("/:id/pay", handlers.PayAdvance)
		}

		goals := api.Group("/goals")
		{
			goals.POST("", handlers.CreateGoal)
			goals.GET("", handlers.ListGoals)
			goals.GET("/:id", handlers.GetGoal)
			goals.DELETE("/:id", handlers.DeleteGoal)
			goals.POST("/:id/submit", handlers.SubmitGoal)
			goals.POST("/:id/approve", handlers.ApproveGoal)
			goals.POST("/:id/reject", handlers.RejectGoal)
			goals.PATCH("/:id/progress", handlers.UpdateGoalProgress)
			goals.POST("/:id/complete", handlers.CompleteGoal)
		}

		pips := api.Group("/pips")
		{
			pips.POST("", handlers.CreatePIP)
			pips.GET("", handlers.ListPIPs)
			pips.GET("/:id", handlers.GetPIP)
			pips.POST("/:id/submit", handlers.SubmitPIP)
			pips.POST("/:id/approve", handlers.ApprovePIP)
			pips.POST("/:id/reject", handlers.RejectPIP)
			pips.POST("/:id/close", handlers.ClosePIP)
		}

		loans := api.Group("/loans")
		{
			loans.POST("", handlers.CreateLoan)
			loans.GET("", handlers.ListLoans)
			loans.GET("/:id", handlers.GetLoan)
			loans.POST("/:id/submit", handlers.SubmitLoan)
			loans.POST("/:id/approve", handlers.ApproveLoan)
			loans.POST("/:id/reject", handlers.RejectLoan)
			loans.POST("/:id/disburse", handlers.DisburseLoan)
		}

		appraisals := api.Group("/appraisals")
		{
			appraisals.POST("", handlers.CreateAppraisal)
			appraisals.GET("", handlers.ListAppraisals)
			appraisals.GET("/:id", handlers.GetAppraisal)
			appraisals.POST("/:id/submit", handlers.SubmitAppraisal)
			appraisals.POST("/:id/feedback", handlers.AddAppraisalFeedback)
			appraisals.GET("/:id/feedback", handlers.ListAppraisalFeedback)
			appraisals.POST("/:id/review", handlers.ReviewAppraisal)
			appraisals.POST("/:id/close", handlers.CloseAppraisal)
		}

		api.POST("/tax/compute", handlers.ComputeTax)

		admin := api.Group("/admin")
		admin.Use(s.ipWhitelistMiddleware())
		{
			admin.POST("/employees", handlers.CreateEmployee)
			admin.GET("/employees", handlers.ListEmployees)
			admin.GET("/employees/:id", handlers.GetEmployee)
			admin.PUT("/employees/:id", handlers.UpdateEmployee)
			admin.POST("/employees/:id/deactivate", handlers.DeactivateEmployee)

			admin.POST("/policies", handlers.CreatePolicy)
			admin.GET("/policies", handlers.ListPolicies)
			admin.GET("/policies/:id", handlers.GetPolicy)

			admin.GET("/audit/:entityType/:entityId", handlers.ListAuditTrail)
		}
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
