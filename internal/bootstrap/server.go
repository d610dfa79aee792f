package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akarpov91/milesbook/api"
	"github.com/akarpov91/milesbook/config"
	"github.com/akarpov91/milesbook/internal/identity"
	"github.com/akarpov91/milesbook/internal/service/booking"
	"github.com/akarpov91/milesbook/internal/service/flights"
	"github.com/akarpov91/milesbook/internal/service/loyalty"
	"github.com/akarpov91/milesbook/internal/service/settlement"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Flights    flights.FlightUseCase
	Bookings   booking.BookingUseCase
	Loyalty    loyalty.LoyaltyUseCase
	Settlement settlement.SettlementUseCase
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, svcs Services) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, svcs),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, svcs Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(identity.Middleware(identity.User{
		ID:    cfg.Identity.DevUserID,
		Email: cfg.Identity.DevUserEmail,
	}))

	api.NewFlightHandler(svcs.Flights).Register(router.Group("/flights"))
	api.NewBookingHandler(svcs.Bookings).Register(router.Group("/bookings"))
	api.NewLoyaltyHandler(svcs.Loyalty).Register(router.Group("/loyalty"))
	api.NewAdminHandler(svcs.Settlement).Register(router.Group("/admin"))

	return router
}
