package handler

import (
	"net/http"
	"time"

	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/gin-gonic/gin"
)

// AdminHandler covers maintenance actions on the log store. These are
// mutations like any other, so they go through the session like the
// traffic they manage.
type AdminHandler struct {
	store     *repository.PostgresLogStore
	retention time.Duration
}

func NewAdminHandler(store *repository.PostgresLogStore, retention time.Duration) *AdminHandler {
	return &AdminHandler{store: store, retention: retention}
}

// Cleanup deletes rows older than the retention window.
func (h *AdminHandler) Cleanup(c *gin.Context) {
	ctx := c.Request.Context()

	s := middleware.SessionFrom(c)
	if s != nil {
		defer s.TitleScope("Purge expired logs")()
	}

	if err := h.store.Cleanup(ctx, h.retention); err != nil {
		c.Error(apperrors.NewStorage("cleanup log tables", err))
		return
	}

	if s != nil {
		cutoff := time.Now().UTC().Add(-h.retention)
		for _, table := range []string{"request_logs", "operation_logs", "debug_logs"} {
			if err := s.RecordOperation(ctx, table, "delete", gin.H{"created_before": cutoff}); err != nil {
				c.Error(err)
				return
			}
		}
		if err := s.RecordDebug(ctx, "retention sweep", gin.H{
			"retention":      h.retention.String(),
			"created_before": cutoff,
		}); err != nil {
			c.Error(err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "retention": h.retention.String()})
}
