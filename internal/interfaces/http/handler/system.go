package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hostel/backend/internal/interfaces/http/dto"
)

// DatabasePoolInfo is a snapshot of the SQL connection pool
type DatabasePoolInfo struct {
	MaxOpen int   `json:"max_open" example:"25"`
	Open    int   `json:"open" example:"4"`
	InUse   int   `json:"in_use" example:"1"`
	Idle    int   `json:"idle" example:"3"`
	Waits   int64 `json:"waits" example:"0"`
}

// SystemOption configures a SystemHandler
type SystemOption func(*SystemHandler)

// WithPoolStats exposes connection pool figures on /system/info
func WithPoolStats(fn func() (DatabasePoolInfo, error)) SystemOption {
	return func(h *SystemHandler) { h.poolStats = fn }
}

// WithReminderScheduler reports whether the cron trigger was started
func WithReminderScheduler(enabled bool) SystemOption {
	return func(h *SystemHandler) { h.remindersEnabled = enabled }
}

// SystemHandler serves build and runtime details for operators
type SystemHandler struct {
	BaseHandler
	startedAt        time.Time
	version          string
	remindersEnabled bool
	poolStats        func() (DatabasePoolInfo, error)
}

func NewSystemHandler(version string, opts ...SystemOption) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	h := &SystemHandler{startedAt: time.Now(), version: version}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SystemInfoResponse describes the running billing service
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name              string            `json:"name" example:"Hostel Billing API"`
	Version           string            `json:"version" example:"1.0.0"`
	GoVersion         string            `json:"go_version" example:"go1.25.5"`
	Uptime            string            `json:"uptime" example:"1h30m45s"`
	ReminderScheduler bool              `json:"reminder_scheduler"`
	Database          *DatabasePoolInfo `json:"database,omitempty"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns the build version, uptime, reminder scheduler state and database pool figures
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:              "Hostel Billing API",
		Version:           h.version,
		GoVersion:         runtime.Version(),
		Uptime:            time.Since(h.startedAt).Round(time.Second).String(),
		ReminderScheduler: h.remindersEnabled,
	}
	if h.poolStats != nil {
		// pool figures are best effort; a failure only omits the section
		if stats, err := h.poolStats(); err == nil {
			info.Database = &stats
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse is the liveness reply
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Liveness check that never touches the database
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}
