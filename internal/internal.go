package internal

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/pkg/errors"

	"github.com/syrilster/leave-lop-console/internal/config"
	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/mailer"
	"github.com/syrilster/leave-lop-console/internal/metrics"
	"github.com/syrilster/leave-lop-console/internal/middlewares"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/session"
	"github.com/syrilster/leave-lop-console/internal/storage"
)

const healthProbeKey = "healthProbe"

//StatusRoute health check route
func StatusRoute(blobs storage.BlobStore) (route config.Route) {
	route = config.Route{
		Path:    "/health",
		Method:  http.MethodGet,
		Handler: middlewares.RuntimeHealthCheck(map[string]middlewares.Check{"storage": storageCheck(blobs)}),
	}
	return route
}

func storageCheck(blobs storage.BlobStore) middlewares.Check {
	return func() error {
		if _, err := blobs.Get(healthProbeKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	}
}

type ServerConfig interface {
	Version() string
	LedgerClient() ledger.ClientInterface
	BlobStore() storage.BlobStore
	EmailClient() sesiface.SESAPI
	EmailTo() string
	EmailFrom() string
	Metrics() *metrics.Recorder
	DebounceInterval() time.Duration
	DefaultQuery() model.QueryParams
}

// NewConsole builds the console service from cfg.
func NewConsole(cfg ServerConfig) *Service {
	return NewService(
		cfg.LedgerClient(),
		cfg.BlobStore(),
		mailer.New(cfg.EmailClient(), cfg.EmailFrom(), cfg.EmailTo()),
		cfg.DefaultQuery(),
		cfg.DebounceInterval(),
		cfg.Metrics(),
	)
}

func SetupServer(cfg ServerConfig, service *Service) *config.Server {
	basePath := fmt.Sprintf("/%v", cfg.Version())
	server := config.NewServer().
		WithRoutes(
			"", StatusRoute(cfg.BlobStore()),
		).
		WithHandler("/metrics", cfg.Metrics().Handler()).
		WithRoutes(
			basePath,
			append(session.Routes(service), Route(service)...)...,
		)
	return server
}
