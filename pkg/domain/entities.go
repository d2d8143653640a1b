package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across persisted
// entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// JSONMap persists arbitrary metadata fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// OptOutAttempt is the durable history record for one pipeline invocation.
// Persistence is best-effort and never influences the returned Outcome.
type OptOutAttempt struct {
	bun.BaseModel `bun:"table:optout_attempts,alias:oa"`

	RecordMeta `bun:",extend"`

	MessageID   string    `bun:",notnull" json:"message_id"`
	Subject     string    `json:"subject"`
	URL         string    `json:"url"`
	Tier        Tier      `json:"tier"`
	Strategy    Strategy  `json:"strategy"`
	Status      Status    `bun:",notnull" json:"status"`
	Message     string    `json:"message"`
	AttemptedAt time.Time `bun:",nullzero" json:"attempted_at"`
	Metadata    JSONMap   `bun:",type:jsonb" json:"metadata,omitempty"`
}
