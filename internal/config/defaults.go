package config

import "time"

const (
	BackendChromem  = "chromem"
	BackendPostgres = "postgres"

	defaultHost         = "127.0.0.1"
	defaultPort         = 8080
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
	defaultTopK         = 3
	defaultVectorSize   = 384
	defaultCallTimeout  = Duration(60 * time.Second)
	defaultMaxUploadMB  = 10
)

// ApplyDefaults fills zero values with working defaults so a minimal config
// file is enough to run.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendChromem
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.InferLLM.Provider == "" {
		cfg.InferLLM.Provider = "ollama"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.VectorSize == 0 {
		cfg.RAG.VectorSize = defaultVectorSize
	}
	if cfg.RAG.CallTimeout == 0 {
		cfg.RAG.CallTimeout = defaultCallTimeout
	}
	if cfg.RAG.MaxUploadMB == 0 {
		cfg.RAG.MaxUploadMB = defaultMaxUploadMB
	}
}
