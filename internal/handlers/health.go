package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/pkg/response"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check responds with the service status and a database ping result.
func (h *HealthHandler) Check(c *gin.Context) {
	dbStatus := "ok"
	status := http.StatusOK

	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	}

	response.Success(c, status, gin.H{
		"status":   "up",
		"database": dbStatus,
	})
}
