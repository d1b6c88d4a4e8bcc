package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/avvvet/homebuddy-agent/internal/agent"
	"github.com/avvvet/homebuddy-agent/internal/analytics"
	"github.com/avvvet/homebuddy-agent/internal/expense"
	"github.com/avvvet/homebuddy-agent/internal/models"
)

// Server exposes the chat entry point and the dashboard's read-only
// aggregate endpoints over HTTP
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	orchestrator *agent.Orchestrator
	store        expense.Store
	analytics    *analytics.Service
}

func NewServer(addr string, orchestrator *agent.Orchestrator, store expense.Store, analyticsService *analytics.Service) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	engine.Use(cors.New(corsConfig))

	s := &Server{
		engine:       engine,
		orchestrator: orchestrator,
		store:        store,
		analytics:    analyticsService,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.POST("/agent/chat", s.handleChat)
		api.GET("/agent/history/:session_id", s.handleHistory)
		api.DELETE("/agent/session/:session_id", s.handleClearSession)

		api.GET("/bills", s.handleListBills)
		api.GET("/bills/upcoming", s.handleUpcomingBills)
		api.GET("/bills/overdue", s.handleOverdueBills)
		api.GET("/maintenance", s.handleListTasks)
		api.GET("/categories", s.handleListCategories)

		api.GET("/analytics/summary", s.handleSummary)
		api.GET("/analytics/yearly", s.handleYearlySummary)
		api.GET("/analytics/categories/analysis", s.handleCategoryAnalysis)
		api.GET("/analytics/trends", s.handleTrendAnalysis)
		api.GET("/analytics/stats", s.handleStats)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var request models.TurnRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	response := s.orchestrator.Turn(c.Request.Context(), request.SessionID, request.Message)
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	turns, err := s.orchestrator.History(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, models.HistoryResponse{SessionID: sessionID, Turns: turns})
}

func (s *Server) handleClearSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := s.orchestrator.Clear(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}

	c.JSON(http.StatusOK, models.ClearResponse{SessionID: sessionID, Cleared: true})
}

func (s *Server) handleListBills(c *gin.Context) {
	filter := expense.Filter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
	if value := c.Query("min_amount"); value != "" {
		if amount, err := strconv.ParseFloat(value, 64); err == nil {
			filter.MinAmount = amount
		}
	}
	if value := c.Query("max_amount"); value != "" {
		if amount, err := strconv.ParseFloat(value, 64); err == nil {
			filter.MaxAmount = amount
		}
	}

	bills, err := s.store.ListBills(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bills"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bills": bills, "count": len(bills)})
}

func (s *Server) handleUpcomingBills(c *gin.Context) {
	days := 30
	if value := c.Query("days"); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 365 {
			days = n
		}
	}

	bills, err := expense.Upcoming(c.Request.Context(), s.store, time.Now(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list upcoming bills"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"upcoming_bills": bills, "count": len(bills), "days_ahead": days})
}

func (s *Server) handleOverdueBills(c *gin.Context) {
	bills, err := expense.Overdue(c.Request.Context(), s.store, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list overdue bills"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"overdue_bills": bills, "count": len(bills)})
}

func (s *Server) handleListTasks(c *gin.Context) {
	filter := expense.TaskFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list maintenance tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"maintenance_tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.store.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) handleSummary(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))

	summary, err := s.analytics.MonthlySummary(c.Request.Context(), year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleYearlySummary(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))

	summary, err := s.analytics.YearlySummary(c.Request.Context(), year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute yearly summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleCategoryAnalysis(c *gin.Context) {
	analysis, err := s.analytics.CategoryAnalysis(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute category analysis"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleTrendAnalysis(c *gin.Context) {
	months := 6
	if value := c.Query("months"); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 24 {
			months = n
		}
	}

	trends, err := s.analytics.TrendAnalysis(c.Request.Context(), months)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute trend analysis"})
		return
	}

	c.JSON(http.StatusOK, trends)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.analytics.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Start runs the HTTP server until it is shut down
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
