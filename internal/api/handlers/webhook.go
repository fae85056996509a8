package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/dubsarr/internal/controllers"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/sirupsen/logrus"
)

// webhookResponse is the fixed body of every webhook reply. The trackers
// fire-and-forget; they must never see an internal failure as a non-200.
const webhookResponse = "Webhook received"

// WebhookHandler handles webhook callbacks from one download tracker
type WebhookHandler struct {
	source models.Source
	ingest *controllers.IngestController
	logger *logrus.Logger
}

// NewSonarrHandler creates the handler for the episode tracker endpoint
func NewSonarrHandler(ingest *controllers.IngestController, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{source: models.SourceSeries, ingest: ingest, logger: logger}
}

// NewRadarrHandler creates the handler for the movie tracker endpoint
func NewRadarrHandler(ingest *controllers.IngestController, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{source: models.SourceMovie, ingest: ingest, logger: logger}
}

// ServeHTTP classifies the event synchronously and always replies 200.
// Malformed bodies decode to zero values and classify as a skip.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event := h.decodeEvent(r)
	h.ingest.HandleEvent(event)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(webhookResponse))
}

func (h *WebhookHandler) decodeEvent(r *http.Request) models.MediaEvent {
	if h.source == models.SourceMovie {
		var payload models.RadarrPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			h.logger.WithError(err).Warn("Failed to decode webhook payload")
		}
		return payload.ToEvent()
	}

	var payload models.SonarrPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.WithError(err).Warn("Failed to decode webhook payload")
	}
	return payload.ToEvent()
}
