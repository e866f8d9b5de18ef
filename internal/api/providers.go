package api

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/discovery"
	"github.com/SafeMPC/mint-service/internal/events"
	"github.com/SafeMPC/mint-service/internal/infra/expiration"
	"github.com/SafeMPC/mint-service/internal/infra/invocation"
	"github.com/SafeMPC/mint-service/internal/infra/mint"
	"github.com/SafeMPC/mint-service/internal/infra/signing"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/infra/submission"
	"github.com/SafeMPC/mint-service/internal/infra/webauthn"
	"github.com/SafeMPC/mint-service/internal/metrics"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

func NewDB(config config.Server) (*sql.DB, error) {
	return storage.NewDB(config.Database)
}

func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, errors.New("redis address is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return client, nil
}

func NewPrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(cfg config.Server, reg *prometheus.Registry, db *sql.DB) (*metrics.Metrics, error) {
	m := metrics.New(reg)
	if db != nil {
		if err := metrics.RegisterDBStats(reg, db, cfg.Database.Database); err != nil {
			return nil, errors.Wrap(err, "failed to register database metrics")
		}
	}
	return m, nil
}

func NewMetadataStore(db *sql.DB) storage.MetadataStore {
	return storage.NewPostgreSQLStore(db)
}

func NewChallengeStore(client *redis.Client) storage.ChallengeStore {
	return storage.NewRedisChallengeStore(client)
}

// NewServiceDiscovery 未配置 Consul 地址时返回 nil
func NewServiceDiscovery(cfg config.Server) (discovery.ServiceDiscovery, error) {
	if cfg.Consul.Address == "" {
		return nil, nil
	}

	consul, err := discovery.NewConsulDiscovery(cfg.Consul.Address)
	if err != nil {
		return nil, err
	}
	return consul, nil
}

// NewRPCClient 静态地址优先，否则从 Consul 选择一个 Soroban RPC 实例
func NewRPCClient(cfg config.Server, serviceDiscovery discovery.ServiceDiscovery) (*soroban.RPCClient, error) {
	resolver := discovery.NewEndpointResolver(cfg.Soroban.RPCURL, serviceDiscovery, cfg.Soroban.ConsulService, discovery.NewLoadBalancer(cfg.Soroban.ConsulBalancer))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	endpoint, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve soroban rpc endpoint")
	}

	log.Info().Str("endpoint", endpoint).Msg("Using Soroban RPC endpoint")
	return soroban.NewRPCClient(endpoint, cfg.Soroban.HTTPTimeout), nil
}

func NewExpirationResolver(rpc *soroban.RPCClient) *expiration.Resolver {
	return expiration.NewResolver(rpc)
}

func NewSigningService(cfg config.Server, resolver *expiration.Resolver) *signing.Service {
	return signing.NewService(cfg.Soroban.NetworkPassphrase, resolver)
}

func NewInvocationService(cfg config.Server, rpc *soroban.RPCClient, signer *signing.Service, m *metrics.Metrics) (*invocation.Service, error) {
	return invocation.NewService(rpc, signer, cfg.Soroban, m)
}

func NewSubmitter(cfg config.Server, rpc *soroban.RPCClient, m *metrics.Metrics) *submission.Submitter {
	return submission.NewSubmitter(rpc, cfg.Soroban, m)
}

// NewMessagePublisher 事件关闭时返回 nil
func NewMessagePublisher(cfg config.Server, client *redis.Client) (message.Publisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	return events.NewRedisStreamPublisher(client, events.NewZerologAdapter())
}

func NewEventPublisher(cfg config.Server, publisher message.Publisher) events.Publisher {
	if publisher == nil {
		return events.NoopPublisher{}
	}
	return events.NewWatermillPublisher(publisher, cfg.Events.Topic)
}

func NewMintService(
	cfg config.Server,
	store storage.MetadataStore,
	challenges storage.ChallengeStore,
	invoker *invocation.Service,
	submitter *submission.Submitter,
	signer *signing.Service,
	publisher events.Publisher,
	clock time2.Clock,
	m *metrics.Metrics,
) (*mint.Service, error) {
	return mint.NewService(store, challenges, invoker, submitter, signer, publisher, clock, cfg, m)
}

func NewPasskeyService(cfg config.Server, store storage.MetadataStore, challenges storage.ChallengeStore, clock time2.Clock) (*webauthn.Service, error) {
	return webauthn.NewService(cfg.WebAuthn, store, challenges, clock)
}

func NewJWTManager(cfg config.Server) (*auth.JWTManager, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
}
