package config

import (
	"fmt"
)

type MigrationStatus string

const (
	StatusCompatible      MigrationStatus = "compatible"
	StatusUpdateAvailable MigrationStatus = "update_available" // Optional (chat)
	StatusIncompatible    MigrationStatus = "incompatible"     // Mandatory (embedding)
)

// DBState represents the model stamp read from a RelationalStore's
// metadata row, i.e. what every currently-persisted vector was produced
// against.
type DBState struct {
	EmbedID      string
	EmbedVersion string
	EmbedDim     int
	ChatID       string
	ChatVersion  string
}

// CheckCompatibility compares a store's stamped model state against the
// running binary's configured defaults. An embedding mismatch is
// mandatory: the stored vectors are no longer comparable to freshly
// embedded queries, so the corpus requires re-ingestion. A chat model
// mismatch is cosmetic: stored vectors remain valid, only generation
// quality changes, so it only raises StatusUpdateAvailable.
func CheckCompatibility(db DBState) (MigrationStatus, []string) {
	var issues []string
	status := StatusCompatible

	// 1. CRITICAL CHECK: Embedding Model.
	// If the model id, version, or dimension differs, the vectors are garbage.
	if db.EmbedID != CurrentDefaults.EmbeddingModel.ID ||
		db.EmbedVersion != CurrentDefaults.EmbeddingModel.Version ||
		db.EmbedDim != CurrentDefaults.EmbeddingModel.Dimension {

		status = StatusIncompatible
		issues = append(issues, fmt.Sprintf(
			"embedding model mismatch: store has %s (%s, dim:%d), binary requires %s (%s, dim:%d)",
			db.EmbedID, db.EmbedVersion, db.EmbedDim,
			CurrentDefaults.EmbeddingModel.ID, CurrentDefaults.EmbeddingModel.Version, CurrentDefaults.EmbeddingModel.Dimension,
		))
	}

	// 2. NON-CRITICAL CHECK: Chat Model.
	// Swapping the chat model doesn't invalidate stored embeddings, only
	// the quality of freshly generated answers.
	if db.ChatID != CurrentDefaults.ChatModel.ID ||
		db.ChatVersion != CurrentDefaults.ChatModel.Version {

		if status == StatusCompatible {
			status = StatusUpdateAvailable
		}
		issues = append(issues, fmt.Sprintf(
			"chat model update: store recorded %s (%s), binary uses %s (%s)",
			db.ChatID, db.ChatVersion,
			CurrentDefaults.ChatModel.ID, CurrentDefaults.ChatModel.Version,
		))
	}

	return status, issues
}
