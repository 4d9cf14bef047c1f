package main

import (
	"context"
	"net/http"
	"time"

	"github.com/PaulBabatuyi/bookhub/internal/data"
	"github.com/PaulBabatuyi/bookhub/internal/logging"
	"github.com/PaulBabatuyi/bookhub/internal/middleware"
	"github.com/PaulBabatuyi/bookhub/internal/service"
)

// accountService is the credential service as the handlers see it.
type accountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Authenticate(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Verify(token string) (*service.Identity, error)
}

// listingService is the listing service as the handlers see it.
type listingService interface {
	List(ctx context.Context) ([]*data.Listing, error)
	Get(ctx context.Context, id string) (*data.Listing, error)
	Create(ctx context.Context, id *service.Identity, in service.CreateListingInput) (*data.Listing, error)
	Delete(ctx context.Context, id *service.Identity, listingID string) error
	AppendMessage(ctx context.Context, id *service.Identity, listingID string, in service.MessageInput) (*data.Message, error)
}

type healthChecker interface {
	Check(ctx context.Context) error
	Status() (time.Time, error)
}

type serverConfig struct {
	authRequired bool
	maxBodyBytes int64
	corsOrigin   string
	staticDir    string
}

// Server holds everything the HTTP handlers need.
type Server struct {
	accounts accountService
	listings listingService
	health   healthChecker
	limiter  *middleware.LimiterStore
	log      logging.Logger
	cfg      serverConfig
}

// newServer returns a ready-to-use Server wired with services and policy.
func newServer(accounts accountService, listings listingService, health healthChecker,
	limiter *middleware.LimiterStore, log logging.Logger, cfg serverConfig) *Server {
	return &Server{
		accounts: accounts,
		listings: listings,
		health:   health,
		limiter:  limiter,
		log:      log,
		cfg:      cfg,
	}
}

// newHTTPServer wraps h with timeouts sized for inline image uploads.
func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
