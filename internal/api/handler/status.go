package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andrei/docscan/internal/repository"
)

// StatusHandler exposes the worker's local attempt journal.
type StatusHandler struct {
	workerID string
	started  time.Time
	attempts *repository.AttemptRepository
}

// NewStatusHandler creates a new status handler.
// Parameters:
//   - workerID: identifier of this worker process.
//   - attempts: attempt journal repository; nil disables journal queries.
// Returns:
//   - *StatusHandler: handler instance.
func NewStatusHandler(workerID string, attempts *repository.AttemptRepository) *StatusHandler {
	return &StatusHandler{
		workerID: workerID,
		started:  time.Now(),
		attempts: attempts,
	}
}

// Stats returns attempt outcome counters for the last 24 hours.
func (h *StatusHandler) Stats(c *gin.Context) {
	resp := gin.H{
		"worker_id":      h.workerID,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}

	if h.attempts != nil {
		stats, err := h.attempts.Stats(c.Request.Context(), time.Now().Add(-24*time.Hour))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read attempt journal"})
			return
		}
		resp["attempts_24h"] = stats
	}

	c.JSON(http.StatusOK, resp)
}

// Attempts returns recent attempts for one document.
func (h *StatusHandler) Attempts(c *gin.Context) {
	if h.attempts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt journal disabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	attempts, err := h.attempts.ListByDocument(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read attempt journal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}
