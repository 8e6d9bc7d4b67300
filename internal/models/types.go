package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Operation labels stored on request log rows.
const (
	OperationChatCompletion = "chat_completion"
	OperationTextCompletion = "text_completion"
	OperationEmbeddings     = "embeddings"
	OperationModelList      = "model_list"
)

// RequestLog records one gateway request. Rows are written asynchronously
// after the response has finished, so a slow database never sits on the
// request path.
type RequestLog struct {
	ID               string            `gorm:"primaryKey;size:36" json:"id"`
	Timestamp        time.Time         `gorm:"index;not null" json:"timestamp"`
	Operation        string            `gorm:"size:32;index" json:"operation"`
	RequestedModel   string            `gorm:"size:128" json:"requested_model"`
	ResolvedModel    string            `gorm:"size:128;index" json:"resolved_model"`
	StatusCode       int               `gorm:"index" json:"status_code"`
	IsStream         bool              `json:"is_stream"`
	DurationMs       int64             `json:"duration_ms"`
	PromptTokens     int64             `json:"prompt_tokens"`
	CompletionTokens int64             `json:"completion_tokens"`
	ErrorCode        string            `gorm:"size:64" json:"error_code,omitempty"`
	Params           datatypes.JSONMap `gorm:"type:json" json:"params,omitempty"`
	ClientIP         string            `gorm:"size:64" json:"client_ip"`
	UserAgent        string            `gorm:"size:256" json:"user_agent"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (RequestLog) TableName() string {
	return "request_logs"
}

// BeforeCreate fills identity fields left empty by the caller.
func (r *RequestLog) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return nil
}

// Succeeded reports whether the logged request finished without a
// client or upstream error.
func (r *RequestLog) Succeeded() bool {
	return r.StatusCode > 0 && r.StatusCode < 400
}

// EffectiveOperation returns the stored operation label, or "unknown"
// for rows written before the column existed.
func (r *RequestLog) EffectiveOperation() string {
	if r.Operation == "" {
		return "unknown"
	}
	return r.Operation
}
