package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table.
type AccountModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName    string    `gorm:"type:varchar(20);not null"`
	LastName     string    `gorm:"type:varchar(20);not null;default:''"`
	UserName     string    `gorm:"type:varchar(15);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Status       int16     `gorm:"not null;default:0"`

	NumberOfTestsGiven int     `gorm:"not null;default:0"`
	TotalTimeSpent     float64 `gorm:"not null;default:0"`
	BestSpeed          float64 `gorm:"not null;default:0"`
	AverageSpeed       float64 `gorm:"not null;default:0"`
	BestAccuracy       float64 `gorm:"not null;default:0"`
	AverageAccuracy    float64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	TestRecords []TestRecordModel `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}
