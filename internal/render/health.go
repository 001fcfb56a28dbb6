package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ServiceHealth is the outcome of a ping. When Available is false only
// Reason is meaningful.
type ServiceHealth struct {
	Available    bool    `json:"available"`
	DeviceName   string  `json:"device_name,omitempty"`
	FreeMemoryGB float64 `json:"free_memory_gb"`
	Reason       string  `json:"reason,omitempty"`
}

// FreeMemory renders the free device memory with one decimal place.
func (h ServiceHealth) FreeMemory() string {
	return strconv.FormatFloat(h.FreeMemoryGB, 'f', 1, 64)
}

// Summary is a one-line human readable status.
func (h ServiceHealth) Summary() string {
	if !h.Available {
		return "render service unavailable: " + h.Reason
	}
	return fmt.Sprintf("render service online | GPU: %s | free VRAM: %sGB", h.DeviceName, h.FreeMemory())
}

type pingResponse struct {
	Devices struct {
		Active struct {
			Cuda *struct {
				Name    *string  `json:"name"`
				MemFree *float64 `json:"mem_free"`
			} `json:"cuda"`
		} `json:"active"`
	} `json:"devices"`
}

// CheckHealth pings the service once. It never fails: problems are reported
// through ServiceHealth.Reason.
func (c *Client) CheckHealth(ctx context.Context) ServiceHealth {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("render: build ping request")
		return ServiceHealth{Reason: fmt.Sprintf("connection error: %v", err)}
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(ctx, c.healthTimeout, req)
	if err != nil {
		c.logger.Error().Err(err).Msg("render: ping failed")
		return ServiceHealth{Reason: err.Error()}
	}
	if status != http.StatusOK {
		c.logger.Warn().Int("status", status).Str("body", truncateBody(body)).Msg("render: ping returned non-200")
		return ServiceHealth{Reason: fmt.Sprintf("service returned status %d", status)}
	}

	var decoded pingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Error().Err(err).Msg("render: decode ping response")
		return ServiceHealth{Reason: fmt.Sprintf("malformed ping response: %v", err)}
	}
	cuda := decoded.Devices.Active.Cuda
	if cuda == nil || cuda.MemFree == nil || cuda.Name == nil || strings.TrimSpace(*cuda.Name) == "" {
		c.logger.Error().Msg("render: ping response missing devices.active.cuda")
		return ServiceHealth{Reason: "malformed ping response: missing device information"}
	}
	return ServiceHealth{
		Available:    true,
		DeviceName:   strings.TrimSpace(*cuda.Name),
		FreeMemoryGB: *cuda.MemFree,
	}
}
