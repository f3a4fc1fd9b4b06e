package catalog

import (
	"github.com/m13/backoffice/internal/domain/shared"
)

// ErrorRecord persists a failure of unattended work for later inspection
type ErrorRecord struct {
	shared.BaseEntity
	Marketplace string `gorm:"type:varchar(16);index"`
	Context     string `gorm:"type:varchar(128);not null"`
	Message     string `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (ErrorRecord) TableName() string {
	return "error_records"
}

// NewErrorRecord creates a new error record
func NewErrorRecord(marketplace, context string, err error) *ErrorRecord {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ErrorRecord{
		BaseEntity:  shared.NewBaseEntity(),
		Marketplace: marketplace,
		Context:     context,
		Message:     msg,
	}
}
