package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type ContactInfo struct {
	// Phone is nil when unknown so the partial unique index ignores it.
	Phone      *string `gorm:"column:phone;type:varchar(30)"`
	Email      string  `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Address    string  `gorm:"column:address;type:text"`
	City       string  `gorm:"column:city;type:varchar(100)"`
	PostalCode string  `gorm:"column:postal_code;type:varchar(20)"`
}

type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;type:date;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(20);not null;default:'unknown'"`
	IDNumber    string    `gorm:"column:id_number;type:varchar(50)"`

	ContactInfo

	// Billing context
	MedicalAidID     *uuid.UUID `gorm:"column:medical_aid_id;type:uuid;index"`
	MedicalAidNumber string     `gorm:"column:medical_aid_number;type:varchar(50)"`

	Status Status `gorm:"column:status;type:varchar(20);not null;default:'active';index"`
	Notes  string `gorm:"column:notes;type:text"`
}

func (Patient) TableName() string {
	return "practice.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive
}

func (p *Patient) Deactivate() error {
	if p.Status == StatusInactive {
		return ErrPatientInactive
	}
	p.Status = StatusInactive
	return nil
}

// NormalizeEmail lower-cases and trims an address so uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips formatting characters; empty input yields nil.
func NormalizePhone(phone string) *string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	s := b.String()
	return &s
}

type CreatePatientCommand struct {
	FirstName        string
	LastName         string
	DateOfBirth      time.Time
	Gender           Gender
	IDNumber         string
	Phone            string
	Email            string
	Address          string
	City             string
	PostalCode       string
	MedicalAidID     *uuid.UUID
	MedicalAidNumber string
	Notes            string
}

type UpdatePatientCommand struct {
	FirstName        *string
	LastName         *string
	Gender           *Gender
	Phone            *string
	Email            *string
	Address          *string
	City             *string
	PostalCode       *string
	MedicalAidID     *uuid.UUID
	MedicalAidNumber *string
	Notes            *string
}

// Apply copies the set fields of cmd onto p.
func (p *Patient) Apply(cmd *UpdatePatientCommand) {
	if cmd.FirstName != nil {
		p.FirstName = strings.TrimSpace(*cmd.FirstName)
	}
	if cmd.LastName != nil {
		p.LastName = strings.TrimSpace(*cmd.LastName)
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.Phone != nil {
		p.Phone = NormalizePhone(*cmd.Phone)
	}
	if cmd.Email != nil {
		p.Email = NormalizeEmail(*cmd.Email)
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.City != nil {
		p.City = *cmd.City
	}
	if cmd.PostalCode != nil {
		p.PostalCode = *cmd.PostalCode
	}
	if cmd.MedicalAidID != nil {
		p.MedicalAidID = cmd.MedicalAidID
	}
	if cmd.MedicalAidNumber != nil {
		p.MedicalAidNumber = *cmd.MedicalAidNumber
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}
}

// ListPatientsQuery defines filtering and pagination for patient list queries.
type ListPatientsQuery struct {
	Search   string // Matches name or email
	Status   *Status
	Page     int
	PageSize int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
