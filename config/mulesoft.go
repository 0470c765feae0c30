package config

import (
	"os"
	"strings"
	"time"
)

// MulesoftConfig holds the integration-layer connection settings for both
// remote services (SAP and iPlan are reached through the same Mulesoft edge).
// It is an explicit value passed to gateway.NewClient; there is no hidden
// process-wide "current service" state.
type MulesoftConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// Sender identifies this system on iPlan DDQ requests.
	Sender string
}

func MulesoftFromEnv() MulesoftConfig {
	baseURL := strings.TrimSpace(os.Getenv("MULESOFT_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api-gw.example.com/v1"
	}
	sender := strings.TrimSpace(os.Getenv("IPLAN_SENDER"))
	if sender == "" {
		sender = "e-ordering"
	}
	timeout := time.Duration(intFromEnv("MULESOFT_TIMEOUT_SECONDS", 30)) * time.Second

	return MulesoftConfig{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     strings.TrimSpace(os.Getenv("MULESOFT_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("MULESOFT_CLIENT_SECRET")),
		Timeout:      timeout,
		Sender:       sender,
	}
}

// SpecialPlants lists fulfillment locations whose lines bypass allocation
// entirely (consignment / container plants). Comma-separated env override.
func SpecialPlants() []string {
	raw := strings.TrimSpace(os.Getenv("SPECIAL_PLANTS"))
	if raw == "" {
		return []string{"754F", "756F"}
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
