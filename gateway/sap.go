package gateway

import "context"

const (
	sapCreateEndpoint = "/sales/orders/create"
	sapUpdateEndpoint = "/sales/orders/update"
)

// SapClient creates and changes ERP sales documents through the integration
// edge.
type SapClient struct {
	c *Client
}

func NewSapClient(c *Client) *SapClient {
	return &SapClient{c: c}
}

// CreateOrder posts a new sales document. The response must still be checked
// with HasError; a transport-level nil error does not mean the document was
// saved.
func (sc *SapClient) CreateOrder(ctx context.Context, req *SapOrderRequest) (*SapOrderResponse, error) {
	var out SapOrderResponse
	if err := sc.c.Send(ctx, ServiceSap, sapCreateEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrder changes an existing sales document; req.Salesdocument selects
// it and the *Inx structures carry the change flags.
func (sc *SapClient) UpdateOrder(ctx context.Context, req *SapOrderRequest) (*SapOrderResponse, error) {
	var out SapOrderResponse
	if err := sc.c.Send(ctx, ServiceSap, sapUpdateEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
