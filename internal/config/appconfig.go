package config

import (
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/customhttp"
	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/metrics"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/storage"
)

type ApplicationConfig struct {
	envValues    *envConfig
	ledgerClient ledger.ClientInterface
	blobStore    storage.BlobStore
	emailClient  sesiface.SESAPI
	metrics      *metrics.Recorder
	closers      []io.Closer
}

//Version returns application version
func (cfg *ApplicationConfig) Version() string {
	return cfg.envValues.Version
}

//ServerPort returns the port no to listen for requests
func (cfg *ApplicationConfig) ServerPort() int {
	return cfg.envValues.ServerPort
}

func (cfg *ApplicationConfig) LogLevel() string {
	return cfg.envValues.LogLevel
}

//LedgerClient returns the leave ledger client
func (cfg *ApplicationConfig) LedgerClient() ledger.ClientInterface {
	return cfg.ledgerClient
}

//BlobStore returns the durable store for the session token and drafts
func (cfg *ApplicationConfig) BlobStore() storage.BlobStore {
	return cfg.blobStore
}

//EmailClient returns the ses client with config
func (cfg *ApplicationConfig) EmailClient() sesiface.SESAPI {
	return cfg.emailClient
}

//EmailTo returns the to email address
func (cfg *ApplicationConfig) EmailTo() string {
	return cfg.envValues.EmailTo
}

//EmailFrom returns the From email address
func (cfg *ApplicationConfig) EmailFrom() string {
	return cfg.envValues.EmailFrom
}

func (cfg *ApplicationConfig) Metrics() *metrics.Recorder {
	return cfg.metrics
}

//DebounceInterval is how long roster param changes settle before a fetch
func (cfg *ApplicationConfig) DebounceInterval() time.Duration {
	return cfg.envValues.DebounceInterval
}

//DefaultQuery returns the roster params a fresh console starts with
func (cfg *ApplicationConfig) DefaultQuery() model.QueryParams {
	return model.QueryParams{
		Year:     cfg.envValues.DefaultYear,
		Month:    cfg.envValues.DefaultMonth,
		Page:     1,
		PageSize: cfg.envValues.DefaultPageSize,
	}
}

// Close releases connections opened by NewApplicationConfig.
func (cfg *ApplicationConfig) Close() error {
	var firstErr error
	for _, c := range cfg.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

//NewApplicationConfig loads config values from environment and initialises config
func NewApplicationConfig() (*ApplicationConfig, error) {
	envValues, err := NewEnvironmentConfig()
	if err != nil {
		return nil, err
	}

	cfg := &ApplicationConfig{
		envValues: envValues,
		metrics:   metrics.New(),
	}

	httpCommand := NewHTTPCommand(envValues.HTTPTimeout, cfg.metrics)
	cfg.ledgerClient = ledger.NewClient(envValues.LedgerEndpoint, httpCommand)

	switch envValues.StoreBackend {
	case StoreBackendRedis:
		client, err := storage.NewRedisClient(envValues.RedisAddr, envValues.RedisPassword, envValues.RedisDB)
		if err != nil {
			return nil, err
		}
		cfg.closers = append(cfg.closers, client)
		cfg.blobStore = storage.NewRedisStore(client, envValues.StoreNamespace)
	default:
		store, err := storage.NewFileStore(envValues.StoreDir, envValues.StoreNamespace)
		if err != nil {
			return nil, err
		}
		cfg.blobStore = store
	}

	awsSession, err := session.NewSession(aws.NewConfig().WithRegion(envValues.AWSRegion))
	if err != nil {
		_ = cfg.Close()
		return nil, errors.Wrap(err, "creating AWS session")
	}
	cfg.emailClient = ses.New(awsSession)

	log.WithFields(log.Fields{
		"ledger":  envValues.LedgerEndpoint,
		"store":   envValues.StoreBackend,
		"timeout": envValues.HTTPTimeout.String(),
	}).Info("application config loaded")
	return cfg, nil
}

// NewHTTPCommand returns the HTTP client used for every ledger call
func NewHTTPCommand(timeout time.Duration, m *metrics.Recorder) customhttp.HTTPCommand {
	httpCommand := customhttp.New(
		customhttp.WithHTTPClient(&http.Client{Timeout: timeout}),
		customhttp.WithRequestID(),
		customhttp.WithLogging(),
		customhttp.WithObserver(m.ObserveOutbound),
	).Build()

	return httpCommand
}
