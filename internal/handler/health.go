package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/vidshare/api/internal/model"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness checks
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health handles GET /api/v1/users/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		WriteError(w, model.NewInternalError("database unreachable").WithCode(model.ErrCodeDatabase))
		return
	}

	WriteData(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"}, nil)
}
