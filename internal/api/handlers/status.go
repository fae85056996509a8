package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/dubsarr/internal/ledger"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports processing counters from the event history
type StatusHandler struct {
	db     *models.Database
	ledger *ledger.Ledger
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, dl *ledger.Ledger, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		ledger: dl,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalEvents         int            `json:"total_events"`
	EventsByDisposition map[string]int `json:"events_by_disposition"`
	EventsBySource      map[string]int `json:"events_by_source"`
	DeletionLedgerSize  int            `json:"deletion_ledger_size"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events, err := h.db.GetAllEvents()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get event history")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		TotalEvents:         len(events),
		EventsByDisposition: make(map[string]int),
		EventsBySource:      make(map[string]int),
	}
	for _, event := range events {
		response.EventsByDisposition[event.Disposition]++
		response.EventsBySource[event.Source]++
	}

	if size, err := h.ledger.Size(); err != nil {
		h.logger.WithError(err).Warn("Failed to read deletion ledger size")
	} else {
		response.DeletionLedgerSize = size
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
