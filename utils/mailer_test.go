package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestUploadCommitFailureMessage(t *testing.T) {
	subject, body := UploadCommitFailureMessage("UP-1001", errors.New("gateway sap /sales/orders/create: status 502"))

	if !strings.Contains(subject, "UP-1001") {
		t.Errorf("subject %q does not name the order", subject)
	}
	if !strings.Contains(body, "UP-1001") {
		t.Errorf("body does not name the order: %q", body)
	}
	if !strings.Contains(body, "status 502") {
		t.Errorf("body does not carry the cause: %q", body)
	}
	if strings.ContainsAny(body, "<>") {
		t.Errorf("body must be plain text, got markup: %q", body)
	}
}
