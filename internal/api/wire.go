//go:build wireinject

//go:generate wire

package api

import (
	"database/sql"
	"testing"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/mint"
	"github.com/SafeMPC/mint-service/internal/infra/webauthn"
	"github.com/google/wire"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewClock,
	NewPrometheusRegistry,
	NewMetrics,
	NewJWTManager,
	storageSet,
	sorobanSet,
	mintServiceSet,
	passkeyServiceSet,
)

var storageSet = wire.NewSet(
	NewMetadataStore,
	NewRedisClient,
	NewChallengeStore,
)

var sorobanSet = wire.NewSet(
	NewServiceDiscovery,
	NewRPCClient,
	NewExpirationResolver,
	NewSigningService,
	NewInvocationService,
	NewSubmitter,
)

var mintServiceSet = wire.NewSet(
	NewMessagePublisher,
	NewEventPublisher,
	NewMintService,
	wire.Bind(new(MintService), new(*mint.Service)),
)

var passkeyServiceSet = wire.NewSet(
	NewPasskeyService,
	wire.Bind(new(PasskeyService), new(*webauthn.Service)),
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewDB, NoTest)
	return new(Server), nil
}

// InitNewServerWithDB returns a new Server instance with the given DB instance.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithDB(
	_ config.Server,
	_ *sql.DB,
	t ...*testing.T,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
