package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

// cartRequest is the batch payload of the cart endpoint.
type cartRequest struct {
	Items []model.LineItem `json:"items"`
}

// CartClient adds line items to the shopper's cart.
type CartClient struct {
	endpoint *endpoint
}

// NewCartClient creates a client for the cart endpoint at url.
func NewCartClient(url string, timeout time.Duration, opts ...Option) *CartClient {
	return &CartClient{endpoint: newEndpoint(EndpointCart, url, timeout, opts)}
}

// AddItems submits all items in one request. Either the endpoint accepts the
// whole batch or the call fails; partial results are not reported.
func (c *CartClient) AddItems(ctx context.Context, items []model.LineItem) error {
	status, body, err := c.endpoint.post(ctx, cartRequest{Items: items})
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &APIError{Endpoint: EndpointCart, StatusCode: status, Description: parseErrorBody(body)}
	}
	return nil
}
