package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Points    PointsConfig    `mapstructure:"points"`
	Logs      LogsConfig      `mapstructure:"logs"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type AIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	TopP           float64       `mapstructure:"top_p"`
	TopK           int           `mapstructure:"top_k"`
	NumPredict     int           `mapstructure:"num_predict"`
	Timeout        time.Duration `mapstructure:"timeout_seconds"`
}

type RetrievalConfig struct {
	MaxResults    int     `mapstructure:"max_results"`
	MinSimilarity float64 `mapstructure:"min_similarity"`
}

// PointsConfig 每种行为对应的积分值
type PointsConfig struct {
	QuestionAsked     int `mapstructure:"question_asked"`
	EventAttended     int `mapstructure:"event_attended"`
	FeedbackSubmitted int `mapstructure:"feedback_submitted"`
	StreakBonus       int `mapstructure:"streak_bonus"`
	AchievementBonus  int `mapstructure:"achievement_bonus"`
}

type LogsConfig struct {
	Dir string `mapstructure:"dir"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// recognizedKeys 用于检测配置文件中的未知选项
var recognizedKeys = map[string]bool{
	"server.port": true, "server.mode": true,
	"database.path": true,
	"redis.enabled": true, "redis.host": true, "redis.port": true,
	"redis.password": true, "redis.db": true,
	"ai.base_url": true, "ai.model": true, "ai.embedding_model": true,
	"ai.temperature": true, "ai.top_p": true, "ai.top_k": true,
	"ai.num_predict": true, "ai.timeout_seconds": true,
	"retrieval.max_results": true, "retrieval.min_similarity": true,
	"points.question_asked": true, "points.event_attended": true,
	"points.feedback_submitted": true, "points.streak_bonus": true,
	"points.achievement_bonus": true,
	"logs.dir":                 true,
	"tracing.enabled":          true, "tracing.collector_endpoint": true,
	"cors.allowed_origins":    true,
	"rate_limit.max_requests": true, "rate_limit.window_minutes": true,
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.path", "data/campus_spirit.db")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ai.base_url", "http://localhost:11434")
	viper.SetDefault("ai.model", "llama3.2")
	viper.SetDefault("ai.embedding_model", "nomic-embed-text")
	viper.SetDefault("ai.temperature", 0.8)
	viper.SetDefault("ai.top_p", 0.9)
	viper.SetDefault("ai.top_k", 40)
	viper.SetDefault("ai.num_predict", 400)
	viper.SetDefault("ai.timeout_seconds", 60)
	viper.SetDefault("retrieval.max_results", 3)
	viper.SetDefault("retrieval.min_similarity", 0.3)
	viper.SetDefault("points.question_asked", 1)
	viper.SetDefault("points.event_attended", 5)
	viper.SetDefault("points.feedback_submitted", 2)
	viper.SetDefault("points.streak_bonus", 3)
	viper.SetDefault("points.achievement_bonus", 5)
	viper.SetDefault("logs.dir", "logs")
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.collector_endpoint", "http://localhost:14268/api/traces")
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("rate_limit.max_requests", 100000)
	viper.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("CAMPUS_SPIRIT")
	viper.AutomaticEnv()

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Database
	viper.BindEnv("database.path", "DATABASE_PATH")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.model", "AI_MODEL")
	viper.BindEnv("ai.embedding_model", "AI_EMBEDDING_MODEL")

	// Logs
	viper.BindEnv("logs.dir", "LOGS_DIR")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// 配置文件缺失时全部使用默认值，其他读取错误照常返回
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Println("config file not found, using defaults")
	}

	// 未知选项仅告警，不中断启动
	for _, key := range viper.AllKeys() {
		if !recognizedKeys[key] {
			log.Printf("warning: unknown config option %q ignored", key)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.AI.Timeout = cfg.AI.Timeout * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			os.MkdirAll(dir, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Retrieval.MaxResults < 1 {
		return fmt.Errorf("retrieval.max_results must be >= 1, got %d", c.Retrieval.MaxResults)
	}
	if c.Retrieval.MinSimilarity < -1 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("retrieval.min_similarity must be within [-1,1], got %f", c.Retrieval.MinSimilarity)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be positive")
	}
	return nil
}
