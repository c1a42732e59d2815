package gateway

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// DashboardHandler renders the HTML status page
type DashboardHandler struct {
	coordinator Coordinator
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(coordinator Coordinator) *DashboardHandler {
	return &DashboardHandler{coordinator: coordinator}
}

// ServeHTTP handles GET /
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, NewStateResponse(h.coordinator.Snapshot())); err != nil {
		log.Error().Err(err).Msg("failed to render dashboard")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write dashboard")
	}
}
