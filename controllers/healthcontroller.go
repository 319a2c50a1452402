package controllers

import (
	"net/http"
	"time"

	"github.com/healthq/healthq/db"
)

type HealthController struct {
	Store db.Store

	// AIConnected reports whether a vendor responder was configured; the
	// rule engine fallback counts as disconnected, matching the contract.
	AIConnected bool
}

func (hController *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := hController.Store.Ping(r.Context()); err != nil {
		dbStatus = "disconnected"
	}

	aiStatus := "disconnected"
	if hController.AIConnected {
		aiStatus = "connected"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"database":   dbStatus,
		"ai_service": aiStatus,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
