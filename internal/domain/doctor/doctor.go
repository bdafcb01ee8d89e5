package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	FirstName     string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName      string `gorm:"column:last_name;type:varchar(100);not null"`
	Email         string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone         string `gorm:"column:phone;type:varchar(30)"`
	LicenseNumber string `gorm:"column:license_number;type:varchar(50);uniqueIndex;not null"`

	Specializations []string `gorm:"column:specializations;type:jsonb;serializer:json"`
	Education       string   `gorm:"column:education;type:text"`
	Experience      string   `gorm:"column:experience;type:text"`
	Bio             string   `gorm:"column:bio;type:text"`
	ProfileImage    string   `gorm:"column:profile_image;type:varchar(255)"`

	// Authoritative source for bookable slots
	WorkingHours WorkingHours `gorm:"column:working_hours;type:jsonb;serializer:json;not null"`

	IsActive bool `gorm:"column:is_active;not null;default:true;index"`
}

func (Doctor) TableName() string {
	return "practice.doctors"
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type CreateDoctorCommand struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	LicenseNumber   string
	Specializations []string
	Education       string
	Experience      string
	Bio             string
	ProfileImage    string
	WorkingHours    WorkingHours
}

type UpdateDoctorCommand struct {
	FirstName       *string
	LastName        *string
	Phone           *string
	Specializations *[]string
	Education       *string
	Experience      *string
	Bio             *string
	ProfileImage    *string
	WorkingHours    *WorkingHours
	IsActive        *bool
}

// Apply copies the set fields of cmd onto d.
func (d *Doctor) Apply(cmd *UpdateDoctorCommand) {
	if cmd.FirstName != nil {
		d.FirstName = strings.TrimSpace(*cmd.FirstName)
	}
	if cmd.LastName != nil {
		d.LastName = strings.TrimSpace(*cmd.LastName)
	}
	if cmd.Phone != nil {
		d.Phone = strings.TrimSpace(*cmd.Phone)
	}
	if cmd.Specializations != nil {
		d.Specializations = *cmd.Specializations
	}
	if cmd.Education != nil {
		d.Education = *cmd.Education
	}
	if cmd.Experience != nil {
		d.Experience = *cmd.Experience
	}
	if cmd.Bio != nil {
		d.Bio = *cmd.Bio
	}
	if cmd.ProfileImage != nil {
		d.ProfileImage = *cmd.ProfileImage
	}
	if cmd.WorkingHours != nil {
		d.WorkingHours = *cmd.WorkingHours
	}
	if cmd.IsActive != nil {
		d.IsActive = *cmd.IsActive
	}
}
