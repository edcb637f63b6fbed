package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"netwatch-sim/internal/store"
)

const (
	alertListLimit   = 100
	chatHistoryLimit = 50
)

// Diagnosis outcomes counted in metrics.
const (
	diagnosisOK       = "ok"
	diagnosisError    = "error"
	diagnosisRejected = "rejected"
	diagnosisLimited  = "limited"
)

type diagnosisRequest struct {
	Query   string         `json:"query" binding:"required"`
	Context map[string]any `json:"context"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Network Monitoring AI Assistant API"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"simulation_running": s.sim.Running(),
		"viewers":            s.hub.Len(),
	})
}

func (s *Server) handleNodes(c *gin.Context) {
	nodes, err := s.store.ListNodes(c.Request.Context(), 0)
	if err != nil {
		s.fail(c, "list nodes", err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (s *Server) handleAlerts(c *gin.Context) {
	alerts, err := s.store.UnresolvedAlerts(c.Request.Context(), alertListLimit)
	if err != nil {
		s.fail(c, "list alerts", err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) handleResolveAlert(c *gin.Context) {
	err := s.store.ResolveAlert(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Alert not found"})
		return
	}
	if err != nil {
		s.fail(c, "resolve alert", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert resolved"})
}

func (s *Server) handleDiagnosis(c *gin.Context) {
	if !s.limiter.Allow(c.ClientIP()) {
		s.metrics.DiagnosisRequest(diagnosisLimited)
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Too many diagnosis requests"})
		return
	}
	var req diagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.DiagnosisRequest(diagnosisRejected)
		c.JSON(http.StatusBadRequest, gin.H{"detail": "query is required"})
		return
	}
	resp, err := s.diag.Diagnose(c.Request.Context(), req.Query, req.Context)
	if err != nil {
		s.metrics.DiagnosisRequest(diagnosisError)
		s.logger.Error("diagnosis failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Diagnosis failed: " + err.Error()})
		return
	}
	s.metrics.DiagnosisRequest(diagnosisOK)
	c.JSON(http.StatusOK, gin.H{"response": resp})
}

func (s *Server) handleChatHistory(c *gin.Context) {
	history, err := s.store.ChatHistory(c.Request.Context(), chatHistoryLimit)
	if err != nil {
		s.fail(c, "chat history", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) handleStart(c *gin.Context) {
	started, err := s.sim.Start(c.Request.Context())
	if err != nil {
		s.logger.Error("simulation start failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to start simulation: " + err.Error()})
		return
	}
	if !started {
		c.JSON(http.StatusOK, gin.H{"message": "Simulation already running"})
		return
	}
	s.logger.Info("simulation started")
	c.JSON(http.StatusOK, gin.H{"message": "Network simulation started"})
}

func (s *Server) handleStop(c *gin.Context) {
	if s.sim.Stop() {
		s.logger.Info("simulation stopped")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Network simulation stopped"})
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	s.logger.Error(op+" failed", "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
}
