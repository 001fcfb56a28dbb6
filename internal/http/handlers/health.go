package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type serviceHealthResponse struct {
	Available    bool    `json:"available"`
	DeviceName   string  `json:"device_name,omitempty"`
	FreeMemoryGB float64 `json:"free_memory_gb"`
	FreeMemory   string  `json:"free_memory,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	Summary      string  `json:"summary"`
}

// ServiceHealth probes the render service once; it backs the chat /status command.
func (a *App) ServiceHealth(w http.ResponseWriter, r *http.Request) {
	health := a.Renderer.CheckHealth(r.Context())
	resp := serviceHealthResponse{
		Available:    health.Available,
		DeviceName:   health.DeviceName,
		FreeMemoryGB: health.FreeMemoryGB,
		Reason:       health.Reason,
		Summary:      health.Summary(),
	}
	status := http.StatusServiceUnavailable
	if health.Available {
		resp.FreeMemory = health.FreeMemory()
		status = http.StatusOK
	}
	a.json(w, status, resp)
}
