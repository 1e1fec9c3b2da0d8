package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/tmakoni/omnibus/api"
	"github.com/tmakoni/omnibus/config"
	"github.com/tmakoni/omnibus/internal/service/booking"
	"github.com/tmakoni/omnibus/internal/service/catalog"
	"github.com/tmakoni/omnibus/internal/service/messaging"
	"github.com/tmakoni/omnibus/internal/service/subscription"
)

// Run starts the HTTP server and blocks until the context is cancelled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config,
	catalogSvc catalog.CatalogUseCase, bookingSvc booking.BookingUseCase,
	subscriptionSvc subscription.SubscriptionUseCase, messagingSvc messaging.MessagingUseCase) error {

	engine := newEngine(cfg, catalogSvc, bookingSvc, subscriptionSvc, messagingSvc)
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newEngine(cfg *config.Config,
	catalogSvc catalog.CatalogUseCase, bookingSvc booking.BookingUseCase,
	subscriptionSvc subscription.SubscriptionUseCase, messagingSvc messaging.MessagingUseCase) *gin.Engine {

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), gin.Logger(), requestID())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := engine.Group("/api")
	api.NewRouteHandler(catalogSvc).Register(apiGroup.Group("/routes"))
	api.NewScheduleHandler(catalogSvc, bookingSvc).Register(apiGroup.Group("/schedules"))
	api.NewVehicleHandler(catalogSvc).Register(apiGroup.Group("/vehicles"))
	api.NewBookingHandler(bookingSvc).Register(apiGroup.Group("/bookings"))
	api.NewSubscriptionHandler(subscriptionSvc).Register(apiGroup.Group("/subscriptions"))
	api.NewMessageHandler(messagingSvc).Register(apiGroup.Group("/messages"))

	if cfg.HTTP.SwaggerSpec != "" {
		engine.StaticFile("/docs/openapi.json", cfg.HTTP.SwaggerSpec)
		engine.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/docs/openapi.json"),
		)))
	}

	return engine
}

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an id for log correlation, honoring one
// supplied by the caller.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}
