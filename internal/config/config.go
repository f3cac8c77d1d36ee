package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // "development" or "production"
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"` // e.g. ":8080"
}

// LoggerConfig holds the log level ("debug", "info", "warn", "error").
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig holds JWT settings. Access tokens are short-lived; refresh
// tokens let clients obtain a new access token without re-entering
// credentials.
type AuthConfig struct {
	JwtSecret       string `yaml:"jwtSecret"`
	AccessTokenTTL  int    `yaml:"accessTokenTTL"`  // seconds
	RefreshTokenTTL int    `yaml:"refreshTokenTTL"` // seconds
}

// OpenAIConfig names the models used for generation and embedding.
// Document-side and query-side vectors must come from the same embedding
// model or the distance metric is meaningless.
type OpenAIConfig struct {
	APIKey         string `yaml:"apiKey"`
	ChatModel      string `yaml:"chatModel"`      // e.g. "gpt-4o-mini"
	EmbeddingModel string `yaml:"embeddingModel"` // e.g. "text-embedding-3-small"
	EmbeddingDim   int    `yaml:"embeddingDim"`   // e.g. 1536
}

// ChunkingConfig holds the word-window parameters for document splitting.
type ChunkingConfig struct {
	WindowWords  int `yaml:"windowWords"`
	OverlapWords int `yaml:"overlapWords"`
}

// ChatConfig bounds the generation request.
type ChatConfig struct {
	TopK          int `yaml:"topK"`          // retrieved chunks per question
	HistoryWindow int `yaml:"historyWindow"` // most recent messages kept
	ContextTokens int `yaml:"contextTokens"` // token budget for the context block
	MaxTokens     int `yaml:"maxTokens"`     // completion cap
}

// MySQLConfig holds the relational store connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// FieldConfig describes one field of the Milvus collection schema.
type FieldConfig struct {
	Name         string `yaml:"name"`
	DataType     string `yaml:"dataType"` // "Int64", "VarChar", "FloatVector"
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`
	Dim          int    `yaml:"dim,omitempty"`
	MaxLength    int    `yaml:"maxLength,omitempty"`
}

// IndexConfig describes the vector index of the Milvus collection.
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`
	IndexType  string                 `yaml:"indexType"`  // "IVF_FLAT", "HNSW", "AUTOINDEX"
	MetricType string                 `yaml:"metricType"` // "COSINE"
	Params     map[string]interface{} `yaml:"params"`
}

// SchemaConfig describes the Milvus collection.
type SchemaConfig struct {
	CollectionName string        `yaml:"collectionName"`
	Description    string        `yaml:"description"`
	VectorField    string        `yaml:"vectorField"`
	Fields         []FieldConfig `yaml:"fields"`
	Index          IndexConfig   `yaml:"index"`
}

// MilvusConfig holds the vector store connection and schema settings.
type MilvusConfig struct {
	Address string       `yaml:"address"`
	Schema  SchemaConfig `yaml:"schema"`
}

// MinIOConfig holds the object storage settings for uploaded files.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// DatabaseConfigs groups all storage backends.
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Milvus MilvusConfig `yaml:"milvus"`
	MinIO  MinIOConfig  `yaml:"minio"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	Auth      AuthConfig      `yaml:"auth"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Chat      ChatConfig      `yaml:"chat"`
	Databases DatabaseConfigs `yaml:"databases"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Chunking.WindowWords == 0 {
		cfg.Chunking.WindowWords = 400
	}
	if cfg.Chunking.OverlapWords == 0 {
		cfg.Chunking.OverlapWords = 50
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 5
	}
	if cfg.Chat.HistoryWindow == 0 {
		cfg.Chat.HistoryWindow = 10
	}
	if cfg.Chat.ContextTokens == 0 {
		cfg.Chat.ContextTokens = 3000
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 1000
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.EmbeddingDim == 0 {
		cfg.OpenAI.EmbeddingDim = 1536
	}
	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = 1800
	}
	if cfg.Auth.RefreshTokenTTL == 0 {
		cfg.Auth.RefreshTokenTTL = 604800
	}
}
