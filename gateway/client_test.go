package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/sirupsen/logrus"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cfg := config.MulesoftConfig{
		BaseURL:      server.URL,
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Timeout:      5 * time.Second,
		Sender:       "e-ordering",
	}
	return NewClient(cfg, logger, nil), server
}

func TestSendDecodesBodyAndSetsAuthHeaders(t *testing.T) {
	var gotClientID, gotSecret, gotRequestID string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotClientID = r.Header.Get("client_id")
		gotSecret = r.Header.Get("client_secret")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"salesdocument":"1100001234","return":[{"type":"S","message":"ok"}]}`))
	})

	var out SapOrderResponse
	err := client.Send(context.Background(), ServiceSap, "/sales/orders/create", map[string]string{"a": "b"}, &out)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if out.Salesdocument != "1100001234" {
		t.Errorf("salesdocument = %q, want 1100001234", out.Salesdocument)
	}
	if gotClientID != "test-client" || gotSecret != "test-secret" {
		t.Errorf("auth headers = (%q, %q)", gotClientID, gotSecret)
	}
	if gotRequestID == "" {
		t.Error("every call must carry a request id")
	}
}

func TestSendNon2xxIsGatewayError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"backend down"}`))
	})

	err := client.Send(context.Background(), ServiceIplan, "/planning/ddq/requests", nil, nil)
	if err == nil {
		t.Fatal("expected an error for a 502")
	}
	ge, ok := IsGatewayError(err)
	if !ok {
		t.Fatalf("error %T is not a *GatewayError", err)
	}
	if ge.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", ge.StatusCode)
	}
	if ge.Service != ServiceIplan {
		t.Errorf("service = %q, want iplan", ge.Service)
	}
	if ge.Body == "" {
		t.Error("error must retain the response body for diagnosis")
	}
}

func TestSendTransportErrorIsGatewayError(t *testing.T) {
	client, server := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	err := client.Send(context.Background(), ServiceSap, "/sales/orders/create", nil, nil)
	if err == nil {
		t.Fatal("expected a transport error")
	}
	ge, ok := IsGatewayError(err)
	if !ok {
		t.Fatalf("error %T is not a *GatewayError", err)
	}
	if ge.StatusCode != 0 {
		t.Errorf("transport errors carry no status, got %d", ge.StatusCode)
	}
	if ge.Unwrap() == nil {
		t.Error("transport errors must wrap the underlying cause")
	}
}

func TestSapOrderResponseClassification(t *testing.T) {
	blocked := &SapOrderResponse{
		Salesdocument:    "1100001234",
		CreditStatusCode: CreditStatusBlocked,
		Return:           []SapReturn{{Type: SapMessageSuccess, Message: "ok"}},
	}
	if blocked.HasError() {
		t.Error("a credit block is not a structured error")
	}
	if !blocked.CreditBlocked() {
		t.Error("CreditBlocked must report code B")
	}

	failed := &SapOrderResponse{Data: []SapReturn{{Type: SapMessageError, Message: "bad plant"}}}
	if !failed.HasError() {
		t.Error("errors in the data array must count")
	}
}
