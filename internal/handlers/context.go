package handlers

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/services"
)

// requestMetadata captures the client details attached to sessions and audit rows.
func requestMetadata(c *gin.Context) iauth.SessionMetadata {
	return iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// auditEntry pre-fills an audit entry with the acting user and client details.
func auditEntry(c *gin.Context, action, resource, result string) services.AuditEntry {
	entry := services.AuditEntry{
		Action:    action,
		Resource:  resource,
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if userID, ok := middleware.UserID(c); ok {
		entry.UserID = &userID
	}
	return entry
}

// pageInput reads the shared pagination query parameters.
func pageInput(c *gin.Context) services.Pagination {
	return services.Pagination{
		Page:    parseIntQuery(c, "page", 1),
		PerPage: parseIntQuery(c, "perPage", 10),
	}
}
