package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerationLog stores one LLM call (system monitoring purpose).
// Collection: generation_logs
type GenerationLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID      string             `bson:"request_id" json:"request_id"`
	Provider       string             `bson:"provider" json:"provider"`
	ModelName      string             `bson:"model_name" json:"model_name"`
	DraftKey       string             `bson:"draft_key" json:"draft_key"`
	Variant        string             `bson:"variant" json:"variant"`
	DurationMs     int64              `bson:"duration_ms" json:"duration_ms"`
	ErrorMessage   *string            `bson:"error_message,omitempty" json:"error_message,omitempty"`
	InputPrompt    string             `bson:"input_prompt" json:"input_prompt"`
	OutputResponse string             `bson:"output_response" json:"output_response"`
	RequestedAt    time.Time          `bson:"requested_at" json:"requested_at"`
	CompletedAt    time.Time          `bson:"completed_at" json:"completed_at"`
}
