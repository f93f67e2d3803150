package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Chroma    ChromaConfig
	Ollama    OllamaConfig
	Retrieval RetrievalConfig
	Generate  GenerateConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type UploadConfig struct {
	Dir           string
	MaxFileSizeMB int
}

type ChromaConfig struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

type OllamaConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
}

type RetrievalConfig struct {
	ChunkSize           int
	TopK                int
	SimilarityThreshold float64
}

type GenerateConfig struct {
	Temperature   float64
	TopP          float64
	MaxTokens     int
	ContextWindow int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8001)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxFileSize, err := getEnvInt("MAX_FILE_SIZE_MB", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_FILE_SIZE_MB: %w", err)
	}

	chunkSize, err := getEnvInt("CHUNK_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_SIZE: %w", err)
	}

	topK, err := getEnvInt("RETRIEVAL_TOP_K", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid RETRIEVAL_TOP_K: %w", err)
	}

	threshold, err := getEnvFloat("SIMILARITY_THRESHOLD", 0.3)
	if err != nil {
		return nil, fmt.Errorf("invalid SIMILARITY_THRESHOLD: %w", err)
	}

	temperature, err := getEnvFloat("GEN_TEMPERATURE", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid GEN_TEMPERATURE: %w", err)
	}

	topP, err := getEnvFloat("GEN_TOP_P", 0.9)
	if err != nil {
		return nil, fmt.Errorf("invalid GEN_TOP_P: %w", err)
	}

	maxTokens, err := getEnvInt("GEN_MAX_TOKENS", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid GEN_MAX_TOKENS: %w", err)
	}

	contextWindow, err := getEnvInt("GEN_CONTEXT_WINDOW", 2048)
	if err != nil {
		return nil, fmt.Errorf("invalid GEN_CONTEXT_WINDOW: %w", err)
	}

	genTimeout, err := getEnvInt("GEN_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid GEN_TIMEOUT_SECONDS: %w", err)
	}

	indexTimeout, err := getEnvInt("INDEX_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid INDEX_TIMEOUT_SECONDS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "data/chat_history.db"),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSizeMB: maxFileSize,
		},
		Chroma: ChromaConfig{
			URL:        getEnv("CHROMA_URL", "http://localhost:8000"),
			Collection: getEnv("CHROMA_COLLECTION", "documents"),
			Timeout:    time.Duration(indexTimeout) * time.Second,
		},
		Ollama: OllamaConfig{
			URL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:   getEnv("OLLAMA_MODEL", "llama3.1:8b"),
			Timeout: time.Duration(genTimeout) * time.Second,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:           chunkSize,
			TopK:                topK,
			SimilarityThreshold: threshold,
		},
		Generate: GenerateConfig{
			Temperature:   temperature,
			TopP:          topP,
			MaxTokens:     maxTokens,
			ContextWindow: contextWindow,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string
	if c.Chroma.URL == "" {
		problems = append(problems, "CHROMA_URL must not be empty")
	}
	if c.Ollama.URL == "" {
		problems = append(problems, "OLLAMA_URL must not be empty")
	}
	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		problems = append(problems, "SIMILARITY_THRESHOLD must be in [0,1]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}
