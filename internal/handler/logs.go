package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/service"
	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	svc *service.LogService
}

func NewLogsHandler(svc *service.LogService) *LogsHandler {
	return &LogsHandler{svc: svc}
}

func (h *LogsHandler) ListRequests(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	records, err := h.svc.ListRequests(c.Request.Context(), filter)
	if err != nil {
		c.Error(apperrors.NewStorage("list request logs", err))
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *LogsHandler) ListOperations(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	records, err := h.svc.ListOperations(c.Request.Context(), filter)
	if err != nil {
		c.Error(apperrors.NewStorage("list operation logs", err))
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *LogsHandler) ListDebug(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	records, err := h.svc.ListDebug(c.Request.Context(), filter)
	if err != nil {
		c.Error(apperrors.NewStorage("list debug logs", err))
		return
	}
	c.JSON(http.StatusOK, records)
}

func parseFilter(c *gin.Context) (repository.ListFilter, error) {
	filter := repository.ListFilter{Limit: 100, Module: c.Query("module")}

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid limit")
		}
		filter.Limit = parsed
	}
	if raw := c.Query("request_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid request_id")
		}
		filter.RequestID = parsed
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format")
}
