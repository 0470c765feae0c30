package gateway

import "context"

const (
	iplanPlanEndpoint    = "/planning/ddq/requests"
	iplanConfirmEndpoint = "/planning/ddq/confirmations"
)

// IplanClient talks to the planning engine through the integration edge.
type IplanClient struct {
	c *Client
}

func NewIplanClient(c *Client) *IplanClient {
	return &IplanClient{c: c}
}

// RequestPlan submits an availability inquiry. A nil error only means the
// engine answered; per-line outcomes live inside the envelope.
func (ic *IplanClient) RequestPlan(ctx context.Context, req *PlanRequest) (*EngineResponse, error) {
	var out EngineResponse
	if err := ic.c.Send(ctx, ServiceIplan, iplanPlanEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Confirm finalizes (COMMIT) or releases (ROLLBACK) earlier reservations.
func (ic *IplanClient) Confirm(ctx context.Context, req *ConfirmRequest) (*EngineResponse, error) {
	var out EngineResponse
	if err := ic.c.Send(ctx, ServiceIplan, iplanConfirmEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
