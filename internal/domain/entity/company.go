package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company represents a property-management company in the multitenant system.
// Every billing entity is partitioned by company.
type Company struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Slug      string          `gorm:"size:255;unique;not null" json:"slug"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Settings  CompanySettings `gorm:"type:jsonb;serializer:json" json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Owner   User                `gorm:"foreignKey:OwnerID" json:"-"`
	Members []CompanyMembership `gorm:"foreignKey:CompanyID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new company
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Company model
func (Company) TableName() string {
	return "companies"
}

// MemberUser represents a subset of user fields for membership responses
type MemberUser struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}

// CompanyMembership represents a user's membership in a company
type CompanyMembership struct {
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey" json:"company_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      string    `gorm:"size:50;default:'member'" json:"role"` // owner, admin, member
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
	User    User    `gorm:"foreignKey:UserID" json:"-"`

	// Computed field for JSON response
	MemberUser *MemberUser `gorm:"-" json:"user,omitempty"`
}

// PopulateUserDetails populates the MemberUser field from the User relationship
func (cm *CompanyMembership) PopulateUserDetails() {
	if cm.User.ID != uuid.Nil {
		cm.MemberUser = &MemberUser{
			ID:        cm.User.ID,
			FirstName: cm.User.FirstName,
			LastName:  cm.User.LastName,
			Email:     cm.User.Email,
		}
	}
}

// TableName returns the table name for the CompanyMembership model
func (CompanyMembership) TableName() string {
	return "company_memberships"
}

// CompanySettings holds customizable company configurations
type CompanySettings struct {
	// Localization
	Currency   string `json:"currency,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	Locale     string `json:"locale,omitempty"`
	DateFormat string `json:"date_format,omitempty"`

	// Billing configuration
	TaxRate          float64 `json:"tax_rate,omitempty"`
	TaxLabel         string  `json:"tax_label,omitempty"`
	InvoicePrefix    string  `json:"invoice_prefix,omitempty"`
	ReceiptPrefix    string  `json:"receipt_prefix,omitempty"`
	DueGraceDays     int     `json:"due_grace_days,omitempty"`
	LateFeePercent   float64 `json:"late_fee_percent,omitempty"`
	DefaultDueInDays int     `json:"default_due_in_days,omitempty"`

	// Payment integrations
	Mpesa *MpesaIntegration `json:"mpesa,omitempty"`

	// Notification settings
	EmailNotifications bool   `json:"email_notifications,omitempty"`
	SMSNotifications   bool   `json:"sms_notifications,omitempty"`
	WebhookURL         string `json:"webhook_url,omitempty"`
}

// Scan implements the sql.Scanner interface for CompanySettings
func (cs *CompanySettings) Scan(value interface{}) error {
	if value == nil {
		*cs = CompanySettings{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan CompanySettings: unsupported type")
	}

	return json.Unmarshal(bytes, cs)
}

// Value implements the driver.Valuer interface for CompanySettings
func (cs CompanySettings) Value() (driver.Value, error) {
	return json.Marshal(cs)
}

// MpesaIntegration holds M-Pesa Daraja API configuration
type MpesaIntegration struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	ShortCode      string `json:"short_code"`
	PassKey        string `json:"pass_key"`
	Environment    string `json:"environment"` // sandbox, production
}

// DefaultCompanySettings returns default settings for new companies
func DefaultCompanySettings() CompanySettings {
	return CompanySettings{
		Currency:           "KES",
		Timezone:           "Africa/Nairobi",
		Locale:             "en-KE",
		DateFormat:         "DD/MM/YYYY",
		TaxRate:            16.0,
		TaxLabel:           "VAT",
		InvoicePrefix:      "INV",
		ReceiptPrefix:      "RCP",
		DefaultDueInDays:   5,
		EmailNotifications: true,
	}
}
