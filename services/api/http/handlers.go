package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Winner-yo/mqtt-dashboard/services/api/logging"
	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

const (
	sourceArchive = "archive"
	sourceMemory  = "memory"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": serviceName})
}

// handleSensor returns the current snapshot in the same shape the viewers get.
// GET /api/sensor
func (s *Server) handleSensor(c *gin.Context) {
	body, err := s.deps.State.SnapshotJSON()
	if err != nil {
		logging.FromContext(c).WithError(err).Error("encode snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode snapshot"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GET /api/status
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Viewers.Status())
}

// handleAlerts lists recent alerts from the archive when one is configured,
// otherwise from the in-memory history.
// GET /api/alerts?last_n=N
func (s *Server) handleAlerts(c *gin.Context) {
	limit := sensor.MaxAlertHistory
	if limitStr := c.Query("last_n"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_n"})
			return
		}
		limit = parsed
	}

	if s.deps.Archive == nil {
		alerts := s.deps.State.Snapshot().Alerts
		if len(alerts) > limit {
			alerts = alerts[:limit]
		}
		c.JSON(http.StatusOK, alertsResponse(sourceMemory, alerts))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	alerts, err := s.deps.Archive.RecentAlerts(ctx, limit)
	if err != nil {
		logging.FromContext(c).WithError(err).Error("query alert archive")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alertsResponse(sourceArchive, alerts))
}

func alertsResponse(source string, alerts []sensor.Alert) gin.H {
	if alerts == nil {
		alerts = []sensor.Alert{}
	}
	return gin.H{
		"source": source,
		"count":  len(alerts),
		"alerts": alerts,
	}
}
