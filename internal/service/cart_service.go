package service

import (
	"context"
	"fmt"

	"foodie/internal/dto"
	"foodie/internal/model"
	"foodie/internal/repository"

	"github.com/google/uuid"
)

type CartService interface {
	Get(ctx context.Context, sessionID string) (*dto.CartResponse, error)
	AddItem(ctx context.Context, sessionID string, req dto.AddCartItemRequest) (*dto.CartResponse, error)
	// UpdateQuantity and RemoveItem report whether the line existed.
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*dto.CartResponse, bool, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*dto.CartResponse, bool, error)
	Clear(ctx context.Context, sessionID string) error
}

type cartService struct {
	store   repository.CartStore
	catalog Catalog
}

func NewCartService(store repository.CartStore, catalog Catalog) CartService {
	return &cartService{store: store, catalog: catalog}
}

func (s *cartService) Get(ctx context.Context, sessionID string) (*dto.CartResponse, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toCartResponse(cart), nil
}

// ── AddItem ───────────────────────────────────────────────────────────────────
// The catalog lookup happens outside the session lock; only the merge into
// the cart is serialised.

func (s *cartService) AddItem(ctx context.Context, sessionID string, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, req.ProductID)
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Update(ctx, sessionID, func(c *model.Cart) error {
		return c.Add(product.ID, product.Name, product.Price, req.Quantity)
	})
	if err != nil {
		return nil, err
	}
	return toCartResponse(cart), nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*dto.CartResponse, bool, error) {
	var found bool
	cart, err := s.store.Update(ctx, sessionID, func(c *model.Cart) error {
		found = c.UpdateQuantity(productID, qty)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return toCartResponse(cart), found, nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*dto.CartResponse, bool, error) {
	var found bool
	cart, err := s.store.Update(ctx, sessionID, func(c *model.Cart) error {
		found = c.Remove(productID)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return toCartResponse(cart), found, nil
}

func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
