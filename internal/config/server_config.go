package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"github.com/subosito/gotenv"
)

// Logger 日志配置
type Logger struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	PrettyPrintConsole bool
}

// Database PostgreSQL 配置
type Database struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis 挑战去重存储 / 事件流
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Soroban 链上调用配置
type Soroban struct {
	// RPCURL 静态 RPC 地址，优先于 ConsulService
	RPCURL string
	// ConsulService 通过 Consul 发现 RPC 实例的服务名
	ConsulService string
	// ConsulBalancer 实例选择策略：round_robin 或 weighted
	ConsulBalancer    string
	NetworkPassphrase string
	// SourceSecret 服务源账户私钥（S...），同时作为 keypair 签名者
	SourceSecret string
	BaseFee      int64
	TxTimeout    time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
}

// Mint 铸造流程配置
type Mint struct {
	Method       string
	ChallengeTTL time.Duration
}

// Auth API 鉴权
type Auth struct {
	JWTSecret string
	JWTIssuer string
}

// WebAuthn 依赖方信息（passkey 注册与测试数据生成）
type WebAuthn struct {
	RPID            string
	RPOrigin        string
	RPDisplayName   string
	RegistrationTTL time.Duration
}

// Events 事件发布
type Events struct {
	Enabled bool
	Topic   string
}

// Consul 服务发现
type Consul struct {
	Address string
}

// EchoServer HTTP 服务
type EchoServer struct {
	ListenAddress string
	Debug         bool
}

// Server 服务总配置
type Server struct {
	Logger   Logger
	Database Database
	Redis    Redis
	Soroban  Soroban
	Mint     Mint
	Auth     Auth
	WebAuthn WebAuthn
	Events   Events
	Consul   Consul
	Echo     EchoServer
}

const envPrefix = "MINT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.request_level", "debug")
	v.SetDefault("logger.log_request_body", false)
	v.SetDefault("logger.pretty_print_console", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "mint")
	v.SetDefault("database.username", "dbuser")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("soroban.rpc_url", "")
	v.SetDefault("soroban.consul_service", "soroban-rpc")
	v.SetDefault("soroban.consul_balancer", "round_robin")
	v.SetDefault("soroban.network_passphrase", network.TestNetworkPassphrase)
	v.SetDefault("soroban.base_fee", txnbuild.MinBaseFee)
	v.SetDefault("soroban.tx_timeout", 60*time.Second)
	v.SetDefault("soroban.poll_interval", 2*time.Second)
	v.SetDefault("soroban.poll_timeout", 2*time.Minute)
	v.SetDefault("soroban.http_timeout", 30*time.Second)

	v.SetDefault("mint.method", "mint")
	v.SetDefault("mint.challenge_ttl", 2*time.Minute)

	v.SetDefault("auth.jwt_issuer", "mint-service")

	v.SetDefault("webauthn.rp_id", "localhost")
	v.SetDefault("webauthn.rp_origin", "http://localhost:8080")
	v.SetDefault("webauthn.rp_display_name", "Mint Service")
	v.SetDefault("webauthn.registration_ttl", 5*time.Minute)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.topic", "mint.events")

	v.SetDefault("consul.address", "")

	v.SetDefault("echo.listen_address", ":8080")
	v.SetDefault("echo.debug", false)
}

func parseLevel(s string, fallback zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return fallback
	}
	return level
}

// DefaultServiceConfigFromEnv 从环境变量（MINT_ 前缀）和可选的 .env 文件加载配置
func DefaultServiceConfigFromEnv() Server {
	// .env 不存在时忽略
	_ = gotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return Server{
		Logger: Logger{
			Level:              parseLevel(v.GetString("logger.level"), zerolog.InfoLevel),
			RequestLevel:       parseLevel(v.GetString("logger.request_level"), zerolog.DebugLevel),
			LogRequestBody:     v.GetBool("logger.log_request_body"),
			PrettyPrintConsole: v.GetBool("logger.pretty_print_console"),
		},
		Database: Database{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			Database:        v.GetString("database.database"),
			Username:        v.GetString("database.username"),
			Password:        v.GetString("database.password"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Soroban: Soroban{
			RPCURL:            v.GetString("soroban.rpc_url"),
			ConsulService:     v.GetString("soroban.consul_service"),
			ConsulBalancer:    v.GetString("soroban.consul_balancer"),
			NetworkPassphrase: v.GetString("soroban.network_passphrase"),
			SourceSecret:      v.GetString("soroban.source_secret"),
			BaseFee:           v.GetInt64("soroban.base_fee"),
			TxTimeout:         v.GetDuration("soroban.tx_timeout"),
			PollInterval:      v.GetDuration("soroban.poll_interval"),
			PollTimeout:       v.GetDuration("soroban.poll_timeout"),
			HTTPTimeout:       v.GetDuration("soroban.http_timeout"),
		},
		Mint: Mint{
			Method:       v.GetString("mint.method"),
			ChallengeTTL: v.GetDuration("mint.challenge_ttl"),
		},
		Auth: Auth{
			JWTSecret: v.GetString("auth.jwt_secret"),
			JWTIssuer: v.GetString("auth.jwt_issuer"),
		},
		WebAuthn: WebAuthn{
			RPID:            v.GetString("webauthn.rp_id"),
			RPOrigin:        v.GetString("webauthn.rp_origin"),
			RPDisplayName:   v.GetString("webauthn.rp_display_name"),
			RegistrationTTL: v.GetDuration("webauthn.registration_ttl"),
		},
		Events: Events{
			Enabled: v.GetBool("events.enabled"),
			Topic:   v.GetString("events.topic"),
		},
		Consul: Consul{
			Address: v.GetString("consul.address"),
		},
		Echo: EchoServer{
			ListenAddress: v.GetString("echo.listen_address"),
			Debug:         v.GetBool("echo.debug"),
		},
	}
}
