package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnstrace/internal/api/models"
	"github.com/jroosing/dnstrace/internal/helpers"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

const probeTimeout = 2 * time.Second

// Health godoc
// @Summary Health check
// @Description Returns ok, or 503 when the journal is attached but unreachable
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 503 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	_, _, store, _, _ := h.components()
	if store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()
		if err := store.Health(ctx); err != nil {
			h.logger.Warn("journal health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, models.StatusResponse{Status: "degraded", Detail: "journal unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Tracer statistics
// @Description Returns frame/message counters plus process and host statistics
// @Tags system
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, ring, store, _, source := h.components()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := time.Since(h.startTime)

	resp := models.StatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		Source:        source,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
		NumCPU:        runtime.NumCPU(),
	}
	if stats != nil {
		resp.Trace = stats.Snapshot()
	}
	if ring != nil {
		resp.RecentEvents = ring.Len()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	resp.Process = h.processStats(ctx)
	if info, err := host.InfoWithContext(ctx); err == nil {
		resp.Host = &models.HostStats{
			Hostname:      info.Hostname,
			OS:            info.OS,
			Platform:      info.Platform,
			UptimeSeconds: info.Uptime,
		}
	} else {
		h.logger.Debug("host info unavailable", "err", err)
	}

	if store != nil {
		n, err := store.CountEvents(ctx)
		if err != nil {
			h.logger.Warn("failed to count journal events", "err", err)
		} else {
			resp.Journal = &models.JournalStats{Events: n}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) processStats(ctx context.Context) *models.ProcessStats {
	pid := int32(helpers.ClampInt(os.Getpid(), 0, 1<<31-1)) //nolint:gosec // clamped above
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		h.logger.Debug("process stats unavailable", "err", err)
		return nil
	}
	ps := &models.ProcessStats{PID: pid}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
		ps.RSSMB = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		ps.CPUPercent = cpu
	}
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		ps.NumThreads = n
	}
	return ps
}
