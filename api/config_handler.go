package api

import (
	"net/http"

	"github.com/seenimoa/investscout/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config     *config.Config `json:"config"`
	ConfigFile string         `json:"config_file,omitempty"` // empty when running on defaults
}

// handleGetConfig returns the running configuration. It holds no secrets.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg,
			ConfigFile: s.cfg.File,
		},
	})
}
