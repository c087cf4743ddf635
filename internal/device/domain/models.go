// Package domain contains persistence models for registered devices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the liveness state of a device.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

// Device type labels. Opaque to liveness and aggregation; kept for the
// resource boundary that creates device records.
const (
	TypeLight      = "light"
	TypeThermostat = "thermostat"
	TypeCamera     = "camera"
	TypeSmartMeter = "smart_meter"
	TypeSensor     = "sensor"
)

// Device is the registry record for one device.
type Device struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	AccountID    snowflake.ID      `json:"account_id" gorm:"column:account_id;not null;index:ix_devices_account"`
	Name         string            `json:"name" gorm:"type:text;not null"`
	Type         string            `json:"type" gorm:"type:text;not null"`
	Status       Status            `json:"status" gorm:"type:text;not null;default:active"`
	LastActiveAt *time.Time        `json:"last_active_at" gorm:"column:last_active_at"`
	Attributes   datatypes.JSONMap `json:"attributes" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }

// ValidStatus reports whether s is one of the three liveness states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance:
		return true
	default:
		return false
	}
}
