package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/mealplanner/internal/app/system/fsutil"
	"github.com/dalemusser/mealplanner/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client // nil when accounts are file-backed
	Dirs   []string      // storage roots that must accept writes
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. client may be nil.
func NewHandler(client *mongo.Client, dirs []string, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Dirs:   dirs,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Storage  string `json:"storage"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "storage":"writable", "database":"connected" }
//
// database is "not_configured" when accounts live in the JSON file. On
// failure: 503 with status "error" and a message naming the failed check.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Storage:  "writable",
		Database: "not_configured",
	}

	for _, dir := range h.Dirs {
		if err := fsutil.Writable(dir); err != nil {
			h.Log.Error("health-check: storage not writable", zap.String("dir", dir), zap.Error(err))
			resp.Status = "error"
			resp.Storage = "unavailable"
			resp.Message = "Storage unavailable"
			resp.Error = err.Error()
			break
		}
	}

	if h.Client != nil {
		if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
			h.Log.Error("health-check: mongo ping failed", zap.Error(err))
			resp.Status = "error"
			resp.Database = "disconnected"
			if resp.Message == "" {
				resp.Message = "Database unavailable"
				resp.Error = err.Error()
			}
		} else {
			resp.Database = "connected"
		}
	}

	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
