package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"foodie/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// ErrCatalogUnavailable is returned while the catalog circuit is open or the
// remote service fails.
var ErrCatalogUnavailable = errors.New("catalog service unavailable")

// catalogProduct is the remote catalog's product representation.
type catalogProduct struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available *bool           `json:"available"`
}

// CatalogClient reads products from a remote catalog service over HTTP.
// A missing product (404) is a normal answer and does not count against
// the circuit breaker.
type CatalogClient struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		cb: NewCircuitBreaker("catalog", DefaultCBConfig()),
	}
}

func (c *CatalogClient) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		var out catalogProduct
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", id.String()).
			SetResult(&out).
			Get("/products/{id}")
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return nil, nil
		case resp.IsError():
			return nil, fmt.Errorf("catalog returned %d", resp.StatusCode())
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	p, _ := res.(*catalogProduct)
	if p == nil || (p.Available != nil && !*p.Available) {
		return nil, model.ErrProductNotFound
	}
	return &model.Product{ID: id, Name: p.Name, Price: p.Price, Available: true}, nil
}
