package config

// ModelType distinguishes the embedding model (whose vectors are load-bearing
// for every stored dump) from the chat model (whose output is regenerated
// per query and carries no persisted state).
type ModelType string

const (
	TypeEmbedding ModelType = "embedding"
	TypeChat      ModelType = "chat"
)

// ModelCard defines the exact specifications of a model artifact.
type ModelCard struct {
	ID            string    `json:"id"`      // e.g. "nomic-embed-text-v1.5"
	Version       string    `json:"version"` // e.g. "v1.0" or a specific commit hash
	Type          ModelType `json:"type"`
	Dimension     int       `json:"dimension"`      // Critical for vector stores (e.g. 768)
	ContextLength int       `json:"context_length"` // Max input tokens for the model
}

// ProcessingConfig defines how text is chunked at ingestion time.
type ProcessingConfig struct {
	ChunkSize    int `json:"chunk_size"`    // MAX_CHARS_PER_BATCH
	ChunkOverlap int `json:"chunk_overlap"` // CHUNK_N_OVERLAP
}

// SystemConfig represents the "gold standard" for this build of the binary:
// the models and processing parameters every stored vector was produced
// against.
type SystemConfig struct {
	AppVersion     string
	EmbeddingModel ModelCard
	ChatModel      ModelCard
	Processing     ProcessingConfig
}

// CurrentDefaults defines the configuration for THIS version of the binary.
// When the bundled models change, these values change with them.
var CurrentDefaults = SystemConfig{
	AppVersion: "0.1.0",

	EmbeddingModel: ModelCard{
		ID:            "nomic-embed-text-v1.5",
		Version:       "1.0", // Increment this to force migration
		Type:          TypeEmbedding,
		Dimension:     768,
		ContextLength: 2048,
	},

	ChatModel: ModelCard{
		ID:            "llama-3.1-8b-instruct",
		Version:       "1.0",
		Type:          TypeChat,
		Dimension:     0,
		ContextLength: 8192,
	},

	Processing: ProcessingConfig{
		ChunkSize:    512,
		ChunkOverlap: 80,
	},
}
