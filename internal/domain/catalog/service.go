// Package catalog holds the practice's bookable services.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryExamination Category = "examination"
	CategoryContactLens Category = "contact_lens"
	CategoryEmergency   Category = "emergency"
	CategoryFollowUp    Category = "follow_up"
	CategoryOther       Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryExamination, CategoryContactLens, CategoryEmergency, CategoryFollowUp, CategoryOther:
		return true
	}
	return false
}

// Service is a catalog entry; an appointment's slot length comes from DurationMins.
type Service struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name         string   `gorm:"column:name;type:varchar(150);uniqueIndex;not null"`
	Description  string   `gorm:"column:description;type:text"`
	DurationMins int      `gorm:"column:duration_mins;not null;check:duration_mins > 0"`
	Price        float64  `gorm:"column:price;type:numeric(10,2);not null;default:0"`
	Category     Category `gorm:"column:category;type:varchar(30);not null;default:'other';index"`
	IsActive     bool     `gorm:"column:is_active;not null;default:true;index"`
}

func (Service) TableName() string {
	return "practice.services"
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMins) * time.Minute
}

type CreateServiceCommand struct {
	Name         string
	Description  string
	DurationMins int
	Price        float64
	Category     Category
}

type UpdateServiceCommand struct {
	Description  *string
	DurationMins *int
	Price        *float64
	Category     *Category
	IsActive     *bool
}

func (s *Service) Apply(cmd *UpdateServiceCommand) {
	if cmd.Description != nil {
		s.Description = *cmd.Description
	}
	if cmd.DurationMins != nil {
		s.DurationMins = *cmd.DurationMins
	}
	if cmd.Price != nil {
		s.Price = *cmd.Price
	}
	if cmd.Category != nil {
		s.Category = *cmd.Category
	}
	if cmd.IsActive != nil {
		s.IsActive = *cmd.IsActive
	}
}
