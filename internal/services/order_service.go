package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/repositories"
)

var (
	// ErrOrderNotFound indicates no order exists for the tracking id.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidInput indicates validation failures for order operations.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderInvalidTransition indicates a status change from a terminal state.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderUnavailable indicates the order store could not be read or written.
	ErrOrderUnavailable = errors.New("order: store unavailable")
)

// OrderServiceDeps bundles collaborators required to construct an OrderService.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Events OrderEventPublisher
	Clock  func() time.Time
	Logger func(context.Context, string, map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	events OrderEventPublisher
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &orderService{
		orders: deps.Orders,
		events: deps.Events,
		clock:  func() time.Time { return clock().UTC() },
		logger: deps.Logger,
	}, nil
}

func (s *orderService) Track(ctx context.Context, trackingID string) (Order, error) {
	normalized, err := normalizeTrackingID(trackingID)
	if err != nil {
		return Order{}, err
	}

	order, err := s.orders.FindByTrackingID(ctx, normalized)
	if err != nil {
		return Order{}, s.mapOrderError(err)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, cmd ListOrdersCommand) ([]Order, error) {
	if cmd.Status != "" && !domain.ValidOrderStatus(cmd.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.Status)
	}

	orders, err := s.orders.List(ctx, repositories.OrderListFilter{
		Status: cmd.Status,
		Limit:  cmd.Limit,
	})
	if err != nil {
		return nil, s.mapOrderError(err)
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, trackingID string, status OrderStatus) (Order, error) {
	normalized, err := normalizeTrackingID(trackingID)
	if err != nil {
		return Order{}, err
	}
	if !domain.ValidOrderStatus(status) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, status)
	}

	current, err := s.orders.FindByTrackingID(ctx, normalized)
	if err != nil {
		return Order{}, s.mapOrderError(err)
	}
	if current.Status == status {
		return current, nil
	}
	if current.Status.Terminal() {
		return Order{}, fmt.Errorf("%w: %s is terminal", ErrOrderInvalidTransition, current.Status)
	}

	updated, err := s.orders.UpdateStatus(ctx, normalized, status)
	if err != nil {
		return Order{}, s.mapOrderError(err)
	}

	s.publishStatusEvent(ctx, updated)
	return updated, nil
}

func (s *orderService) publishStatusEvent(ctx context.Context, order Order) {
	if s.events == nil {
		return
	}
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	_, err := s.events.PublishOrderEvent(ctx, OrderEventMessage{
		TrackingID: order.TrackingID,
		Status:     string(order.Status),
		Total:      order.Breakdown.Total,
		PromoCode:  order.PromoCode,
		ItemCount:  itemCount,
		OccurredAt: s.clock(),
	})
	if err != nil {
		s.log(ctx, "order.event_publish_failed", map[string]any{
			"trackingId": order.TrackingID,
			"error":      err.Error(),
		})
	}
}

func normalizeTrackingID(trackingID string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(trackingID))
	if normalized == "" {
		return "", fmt.Errorf("%w: tracking id is required", ErrOrderInvalidInput)
	}
	return normalized, nil
}

func (s *orderService) mapOrderError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrOrderNotFound
		}
		if repoErr.IsUnavailable() {
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}
	return err
}

func (s *orderService) log(ctx context.Context, event string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger(ctx, event, fields)
}
