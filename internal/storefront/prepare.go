package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

// PrepareClient calls the endpoint that readies a bundle for checkout and
// optionally issues a discount code.
type PrepareClient struct {
	endpoint *endpoint
}

// NewPrepareClient creates a client for the prepare endpoint at url.
func NewPrepareClient(url string, timeout time.Duration, opts ...Option) *PrepareClient {
	return &PrepareClient{endpoint: newEndpoint(EndpointPrepare, url, timeout, opts)}
}

// Prepare posts the selection summary. A non-2xx status or an error payload
// is returned as *APIError.
func (c *PrepareClient) Prepare(ctx context.Context, req model.PrepareRequest) (*model.PrepareResponse, error) {
	status, body, err := c.endpoint.post(ctx, req)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &APIError{Endpoint: EndpointPrepare, StatusCode: status, Description: parseErrorBody(body)}
	}

	var resp model.PrepareResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parsing prepare response: %w", err)
		}
	}
	if resp.Error != "" {
		return nil, &APIError{Endpoint: EndpointPrepare, StatusCode: status, Description: resp.Error}
	}
	return &resp, nil
}
