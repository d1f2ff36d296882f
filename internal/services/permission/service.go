// Package permission maps the browser camera-permission state to the
// guidance a client should show. The state machine itself is driven by
// the browser; this service only decides what to present for each
// state, plus two environment failures that apply regardless of state.
package permission

import (
	"net/url"

	"scanpay/internal/models"
)

// State mirrors the Permissions API camera states.
type State string

const (
	StatePrompt  State = "prompt"
	StateGranted State = "granted"
	StateDenied  State = "denied"
)

// Guidance is what the client renders for a permission state.
type Guidance struct {
	State             State    `json:"state"`
	Title             string   `json:"title"`
	Message           string   `json:"message"`
	CanRequest        bool     `json:"can_request"`
	Instructions      []string `json:"instructions,omitempty"`
	EnvironmentErrors []string `json:"environment_errors,omitempty"`
}

// Service resolves permission guidance.
type Service interface {
	Guidance(state State, caps models.BrowserCapabilities, origin, transportError string) Guidance
}

type service struct{}

// NewService creates a new permission guidance service.
func NewService() Service {
	return &service{}
}

func (s *service) Guidance(state State, caps models.BrowserCapabilities, origin, transportError string) Guidance {
	var g Guidance
	switch state {
	case StateGranted:
		g = Guidance{
			State:   StateGranted,
			Title:   "Kamera siap",
			Message: "Camera access granted. Scanning starts automatically.",
		}
	case StateDenied:
		g = Guidance{
			State:        StateDenied,
			Title:        "Akses kamera ditolak",
			Message:      "Camera access was denied. Re-enable it in your browser settings, then retry.",
			CanRequest:   true,
			Instructions: reEnableInstructions(caps.Browser),
		}
	default:
		// prompt and any unset state share the rationale screen.
		g = Guidance{
			State:      StatePrompt,
			Title:      "Izinkan akses kamera",
			Message:    "The scanner needs camera access to read QR codes. Your camera feed never leaves the device.",
			CanRequest: true,
		}
	}

	// Environment failures surface regardless of permission state.
	if !isSecureOrigin(origin) {
		g.EnvironmentErrors = append(g.EnvironmentErrors,
			"camera access requires a secure (HTTPS) origin")
	}
	if transportError != "" {
		g.EnvironmentErrors = append(g.EnvironmentErrors, transportError)
	}

	return g
}

// Ordered per-browser instruction lookup with a generic fallback.
func reEnableInstructions(browser models.Browser) []string {
	switch browser {
	case models.BrowserChrome:
		return []string{
			"Click the camera icon in the address bar",
			"Select \"Always allow\" for this site",
			"Reload the page",
		}
	case models.BrowserFirefox:
		return []string{
			"Click the shield or camera icon in the address bar",
			"Clear the blocked camera permission",
			"Reload the page and allow access when prompted",
		}
	case models.BrowserSafari:
		return []string{
			"Open Safari > Settings > Websites > Camera",
			"Set this site to \"Allow\"",
			"Reload the page",
		}
	case models.BrowserEdge:
		return []string{
			"Click the lock icon in the address bar",
			"Set Camera to \"Allow\" under site permissions",
			"Reload the page",
		}
	default:
		return []string{
			"Open your browser's site settings",
			"Allow camera access for this site",
			"Reload the page",
		}
	}
}

func isSecureOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
