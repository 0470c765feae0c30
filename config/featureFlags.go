package config

import (
	"os"
	"strings"
)

// AlternateMaterialEnabled gates the alternate-material fallback on allocation
// requests. When disabled, lines are planned with the requested material only.
//
// Set via env:
// - ALT_MATERIAL_ENABLED=true
func AlternateMaterialEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ALT_MATERIAL_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SapTestRunEnabled sends ES-17/ES-21 requests with the testrun flag so SAP
// validates without persisting. Used in staging against the production edge.
//
// Set via env:
// - SAP_TEST_RUN=true
func SapTestRunEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SAP_TEST_RUN")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
