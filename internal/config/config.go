package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	// サーバー
	Port            string        `conf:"default:8080,env:PORT"`
	ReadTimeout     time.Duration `conf:"default:5s,env:READ_TIMEOUT"`
	WriteTimeout    time.Duration `conf:"default:0s,env:WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `conf:"default:20s,env:SHUTDOWN_TIMEOUT"`

	// 許可するフロントのOrigin（空ならCORS無し）
	CORSOrigin string `conf:"env:CORS_ORIGIN"`

	GoEnv    string `conf:"default:dev,env:GO_ENV"`
	LogLevel string `conf:"default:info,env:LOG_LEVEL"`

	// DB（sqlite / postgres）。DATABASE_URLがあれば最優先
	DBDriver    string `conf:"default:sqlite,env:DB_DRIVER"`
	DatabaseURL string `conf:"env:DATABASE_URL,mask"`
	SQLitePath  string `conf:"default:storefront.db,env:SQLITE_PATH"`

	PostgresUser     string `conf:"default:postgres,env:POSTGRES_USER"`
	PostgresPassword string `conf:"default:postgres,env:POSTGRES_PASSWORD,mask"`
	PostgresDB       string `conf:"default:app,env:POSTGRES_DB"`
	PostgresHost     string `conf:"default:localhost,env:POSTGRES_HOST"`
	PostgresPort     int    `conf:"default:5432,env:POSTGRES_PORT"`
	PostgresSSLMode  string `conf:"default:disable,env:POSTGRES_SSLMODE"`

	// JWT署名シークレットとゲストトークンの有効期限
	JWTSecret     string        `conf:"env:JWT_SECRET,mask"`
	GuestTokenTTL time.Duration `conf:"default:720h,env:GUEST_TOKEN_TTL"`

	// ゲスト発行のレート制限（IPごと、Expiryは分）
	GuestRateRPS    float64 `conf:"default:0.2,env:GUEST_RATE_RPS"`
	GuestRateBurst  int     `conf:"default:5,env:GUEST_RATE_BURST"`
	GuestRateExpiry int     `conf:"default:10,env:GUEST_RATE_EXPIRY"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Loadは.envと環境変数から設定を読む
func Load(envFiles ...string) (Config, error) {
	//.envは無くてもよい（本番は環境変数を直接使う）
	if len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}

	var cfg Config
	if _, err := conf.Parse("", &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DatabaseURL != "" && c.DBDriver == DriverSQLite {
		// DATABASE_URL はPostgres用
		c.DBDriver = DriverPostgres
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	case DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres: %q", c.DBDriver)
	}

	if c.JWTSecret == "" {
		if c.GoEnv != "dev" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		c.JWTSecret = "dev_secret_change_me"
	}
	if c.GuestTokenTTL <= 0 {
		return fmt.Errorf("GUEST_TOKEN_TTL must be positive")
	}
	if c.GuestRateBurst < 1 {
		return fmt.Errorf("GUEST_RATE_BURST must be >= 1")
	}
	return nil
}

// Addrはhttp.Server用のアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// PostgresDSNはDATABASE_URLが無いときの接続文字列
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
