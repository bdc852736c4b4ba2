package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/ayvora/api/internal/platform/config"
	platformstorage "github.com/ayvora/api/internal/platform/storage"
	"github.com/ayvora/api/internal/repositories"
	"github.com/ayvora/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Checkout   services.CheckoutService
	Orders     services.OrderService
	Promotions services.PromotionService
	Catalog    services.CatalogService
	Content    services.ContentService
	System     services.SystemService
}

// Dependencies carries collaborators that are constructed outside the registry,
// such as the signed upload client and the order event publisher.
type Dependencies struct {
	Uploads *platformstorage.Client
	Events  services.OrderEventPublisher
	Build   services.BuildInfo
	Logger  *zap.Logger
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, deps Dependencies) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, deps Dependencies) (Services, error) {
	var svc Services

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	promotionSvc, err := services.NewPromotionService(services.PromotionServiceDeps{
		Promotions: reg.PromoCodes(),
		Clock:      time.Now,
		Logger:     zapEventLogger(logger.Named("promotions")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build promotion service: %w", err)
	}
	svc.Promotions = promotionSvc

	pricing := services.NewPricingEngine(
		services.WithPricingLogger(zapEventLogger(logger.Named("pricing"))),
	)

	var events services.OrderEventPublisher
	if cfg.Events.Enabled {
		events = deps.Events
	}

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Products:   reg.Products(),
		Orders:     reg.Orders(),
		Settings:   reg.Settings(),
		Promotions: promotionSvc,
		Pricing:    pricing,
		Events:     events,
		Clock:      time.Now,
		Logger:     zapEventLogger(logger.Named("checkout")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: reg.Orders(),
		Events: events,
		Clock:  time.Now,
		Logger: zapEventLogger(logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:     reg.Products(),
		Uploads:      deps.Uploads,
		ImagesBucket: cfg.Storage.ImagesBucket,
		Clock:        time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	contentSvc, err := services.NewContentService(services.ContentServiceDeps{
		Banners:   reg.Banners(),
		Settings:  reg.Settings(),
		Reviews:   reg.Reviews(),
		Sanitizer: bluemonday.StrictPolicy(),
		Clock:     time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build content service: %w", err)
	}
	svc.Content = contentSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            deps.Build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}

func zapEventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug(event, zFields...)
	}
}
