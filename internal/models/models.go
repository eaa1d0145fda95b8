package models

import "time"

// Chunk is a contiguous window of extracted document text. Identity is its
// position in the split sequence.
type Chunk struct {
	Content string
	ChunkID int
	Source  string
}

// Entry is one upsert unit for the vector index: id, vector, and metadata.
// Metadata always carries the chunk text so retrieval can show sources.
type Entry struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string
}

// Match is one similarity hit returned by the vector index, best first.
type Match struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]string
}

// ChatMessage is one turn of a session's conversation.
type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PromptResponse is the result of one query pipeline pass.
type PromptResponse struct {
	Query     string
	Content   string
	Source    string
	Matches   []Match
	NoContext bool
}
