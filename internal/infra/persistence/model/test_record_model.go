package model

import (
	"time"

	"github.com/google/uuid"
)

// TestRecordModel mirrors the 'test_records' table. AccountID references accounts.id.
type TestRecordModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Language   string    `gorm:"type:varchar(50);not null"`
	TestTime   float64   `gorm:"not null"`
	TimeOfTest time.Time `gorm:"not null"`
	Speed      float64   `gorm:"not null"`
	Accuracy   float64   `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (TestRecordModel) TableName() string {
	return "test_records"
}
