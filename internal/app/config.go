package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/omex-backend/internal/platform/envutil"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/services"
)

type Config struct {
	Port            string
	Environment     string
	ServiceName     string
	Version         string
	ShutdownTimeout time.Duration

	JWTSecretKey      string
	TokenTTL          time.Duration
	LoginMaxAttempts  int
	LoginLockDuration time.Duration
	BcryptCost        int

	DBDriver string
	DBDSN    string

	PlanStore     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ObjectStorageMode   string
	UploadDir           string
	UploadGCSBucket     string
	AvatarGCSBucket     string
	StorageEmulatorHost string
	PublicBaseURL       string
	UploadMaxBytes      int64

	ConverterCommand        string
	ConverterArgs           []string
	ConverterTimeout        time.Duration
	ConverterMaxConcurrency int64
	ConverterWorkDir        string

	RewardPolicy     string
	CORSAllowOrigins []string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelHeaders     string
	OtelInsecure    bool
	OtelSampleRatio float64

	MetricsEnabled bool
	MetricsAddr    string
}

// LoadConfig reads an optional .env file (ENV_FILE overrides the path) and then the environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	envFile := envutil.String("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		log.Info("Loaded env file", "path", envFile)
	}

	port := envutil.String("PORT", "8080")
	cfg := Config{
		Port:            port,
		Environment:     envutil.String("ENVIRONMENT", "development"),
		ServiceName:     envutil.String("SERVICE_NAME", "omex-backend"),
		Version:         envutil.String("SERVICE_VERSION", "dev"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		JWTSecretKey:      envutil.String("JWT_SECRET_KEY", ""),
		TokenTTL:          envutil.Duration("TOKEN_TTL", 720*time.Hour),
		LoginMaxAttempts:  envutil.Int("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockDuration: envutil.Duration("LOGIN_LOCK_DURATION", 2*time.Hour),
		BcryptCost:        envutil.Int("BCRYPT_COST", 10),

		DBDriver: envutil.String("DB_DRIVER", "sqlite"),
		DBDSN:    envutil.String("DB_DSN", "omex.db"),

		PlanStore:     strings.ToLower(envutil.String("PLAN_STORE", "memory")),
		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", "local"),
		UploadDir:           envutil.String("UPLOAD_DIR", "uploads"),
		UploadGCSBucket:     envutil.String("UPLOAD_GCS_BUCKET", ""),
		AvatarGCSBucket:     envutil.String("AVATAR_GCS_BUCKET", ""),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		PublicBaseURL:       envutil.String("PUBLIC_BASE_URL", "http://localhost:"+port+"/media"),
		UploadMaxBytes:      envutil.Int64("UPLOAD_MAX_BYTES", services.DefaultUploadMaxSize),

		ConverterCommand:        envutil.String("CONVERTER_COMMAND", "python3"),
		ConverterArgs:           envutil.List("CONVERTER_ARGS", []string{"converter/mindmaps_app.py"}),
		ConverterTimeout:        envutil.Duration("CONVERTER_TIMEOUT", 2*time.Minute),
		ConverterMaxConcurrency: envutil.Int64("CONVERTER_MAX_CONCURRENCY", 2),
		ConverterWorkDir:        envutil.String("CONVERTER_WORK_DIR", ""),

		RewardPolicy:     envutil.String("REWARD_POLICY", "flat"),
		CORSAllowOrigins: envutil.List("CORS_ALLOW_ORIGINS", nil),

		OtelEnabled:     envutil.Bool("OTEL_ENABLED", false),
		OtelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OtelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelSampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),
		MetricsAddr:    envutil.String("METRICS_ADDR", ":9090"),
	}
	if cfg.AvatarGCSBucket == "" {
		cfg.AvatarGCSBucket = cfg.UploadGCSBucket
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	switch c.PlanStore {
	case planStoreMemory, planStoreSQL:
	case planStoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("PLAN_STORE=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid PLAN_STORE=%q (allowed: %q, %q, %q)", c.PlanStore, planStoreMemory, planStoreRedis, planStoreSQL)
	}
	if _, err := services.NewRewardPolicy(c.RewardPolicy); err != nil {
		return err
	}
	return nil
}
