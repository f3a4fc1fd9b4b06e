package catalog

import (
	"strings"

	"github.com/m13/backoffice/internal/domain/shared"
)

// Category groups prices for article statistics
type Category struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(64);not null"`
	Description string `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category
func NewCategory(name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 64 {
		return nil, ErrInvalidCategoryName
	}
	return &Category{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: description,
	}, nil
}
