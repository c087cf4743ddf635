// Package domain contains persistence models for raw telemetry ingestion.
package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Kind is the closed set of recognized telemetry event kinds. Unknown kinds
// are rejected at ingestion.
type Kind string

const (
	KindConsumptionReading Kind = "consumption_reading"
	KindTemperatureChange  Kind = "temperature_change"
	KindMotionDetected     Kind = "motion_detected"
	KindStatusChange       Kind = "status_change"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindConsumptionReading, KindTemperatureChange, KindMotionDetected, KindStatusChange:
		return true
	default:
		return false
	}
}

// ValueKind tags which payload variant an event carries. Aggregation only
// operates on the number variant.
type ValueKind string

const (
	ValueNumber     ValueKind = "number"
	ValueText       ValueKind = "text"
	ValueStructured ValueKind = "structured"
)

// Value is the tagged-variant payload accepted at ingestion.
type Value struct {
	Kind   ValueKind
	Number decimal.Decimal
	Text   string
	Data   datatypes.JSON
}

// ParseValue classifies a raw JSON value into a payload variant. Numbers are
// kept as exact decimals, strings as text, objects and arrays as structured
// payloads. Null or empty values are invalid.
func ParseValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Value{}, ErrInvalidValue
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return Value{}, ErrInvalidValue
		}
		return Value{Kind: ValueText, Text: text}, nil
	case '{', '[':
		if !json.Valid(trimmed) {
			return Value{}, ErrInvalidValue
		}
		return Value{Kind: ValueStructured, Data: datatypes.JSON(trimmed)}, nil
	default:
		var number decimal.Decimal
		if err := json.Unmarshal(trimmed, &number); err != nil {
			return Value{}, ErrInvalidValue
		}
		return Value{Kind: ValueNumber, Number: number}, nil
	}
}

// Event stores a single immutable telemetry record. No update or delete is
// defined; the store is append-only.
type Event struct {
	ID          snowflake.ID        `json:"id" gorm:"primaryKey"`
	DeviceID    snowflake.ID        `json:"device_id" gorm:"not null;index:ix_device_events_device_time,priority:1"`
	Kind        Kind                `json:"kind" gorm:"type:text;not null"`
	ValueKind   ValueKind           `json:"value_kind" gorm:"column:value_kind;type:text;not null"`
	NumberValue decimal.NullDecimal `json:"number_value" gorm:"column:value_number;type:numeric"`
	TextValue   *string             `json:"text_value,omitempty" gorm:"column:value_text;type:text"`
	DataValue   datatypes.JSON      `json:"data_value,omitempty" gorm:"column:value_data;type:jsonb"`
	RecordedAt  time.Time           `json:"recorded_at" gorm:"not null;index:ix_device_events_device_time,priority:2"`
	Metadata    datatypes.JSONMap   `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "device_events" }
