package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/mmdatafocus/eorder_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	ServiceSap   = "sap"
	ServiceIplan = "iplan"
)

// auditBodyMax bounds request/response bodies stored in gateway_logs.
const auditBodyMax = 60000

// GatewayError reports a failed remote call. StatusCode is zero when the
// request never reached the far side (transport error, decode error).
type GatewayError struct {
	Service    string
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Service, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Service, e.Endpoint, e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGatewayError unwraps err to the gateway failure, if any.
func IsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// Client is the single HTTP edge for both remote services. Every call gets a
// request id, auth headers and an audit row; callers only see decoded bodies
// or a *GatewayError.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
	logger       *logrus.Logger
	db           *gorm.DB
}

func NewClient(cfg config.MulesoftConfig, logger *logrus.Logger, db *gorm.DB) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
		db:           db,
	}
}

// Send posts payload to endpoint and decodes the body into out (out may be
// nil). Non-2xx statuses and transport failures both come back as
// *GatewayError; the caller decides which are retryable.
func (c *Client) Send(ctx context.Context, service string, endpoint string, payload any, out any) error {
	requestId := uuid.New().String()

	body, err := json.Marshal(payload)
	if err != nil {
		return &GatewayError{Service: service, Endpoint: endpoint, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return &GatewayError{Service: service, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client_id", c.clientID)
	req.Header.Set("client_secret", c.clientSecret)
	req.Header.Set("X-Request-ID", requestId)
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		req.Header.Set("X-Correlation-ID", correlationId)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.audit(ctx, service, endpoint, requestId, body, nil, 0, elapsed, err)
		config.LogError(c.logger, "gateway", "Send", endpoint, utils.TruncateForLog(body, 2000), err)
		return &GatewayError{Service: service, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		c.audit(ctx, service, endpoint, requestId, body, nil, resp.StatusCode, elapsed, readErr)
		return &GatewayError{Service: service, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: readErr}
	}

	c.audit(ctx, service, endpoint, requestId, body, respBody, resp.StatusCode, elapsed, nil)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := &GatewayError{
			Service:    service,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
		config.LogError(c.logger, "gateway", "Send", endpoint, utils.TruncateForLog(respBody, 2000), gerr)
		return gerr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &GatewayError{Service: service, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	config.LogInfo(c.logger, "gateway", "Send", "remote call completed", logrus.Fields{
		"service":    service,
		"endpoint":   endpoint,
		"requestId":  requestId,
		"statusCode": resp.StatusCode,
		"elapsedMs":  elapsed.Milliseconds(),
	})
	return nil
}

func (c *Client) audit(ctx context.Context, service string, endpoint string, requestId string, reqBody []byte, respBody []byte, status int, elapsed time.Duration, callErr error) {
	rec := &models.GatewayLog{
		Service:    service,
		Endpoint:   endpoint,
		RequestId:  requestId,
		Request:    utils.TruncateForLog(reqBody, auditBodyMax),
		Response:   utils.TruncateForLog(respBody, auditBodyMax),
		StatusCode: status,
		ElapsedMs:  elapsed.Milliseconds(),
	}
	if callErr != nil {
		rec.ErrorText = callErr.Error()
	}
	if err := models.CreateGatewayLog(ctx, c.db, rec); err != nil {
		config.LogError(c.logger, "gateway", "audit", endpoint, requestId, err)
	}
}
