package email

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TypeTransactional     = "transactional"
	TypeOrderConfirmation = "order_confirmation"
	TypeShipmentNotice    = "shipment_notice"
	TypeWelcome           = "welcome"
	TypeNewsletter        = "newsletter"
	TypeNudge             = "abandoned_cart"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// EmailLog is written for every send attempt, successful or not.
type EmailLog struct {
	ID                string    `gorm:"type:char(36);primaryKey"`
	Recipients        string    `gorm:"type:varchar(2048);not null"`
	Subject           string    `gorm:"type:varchar(255);not null"`
	Type              string    `gorm:"type:varchar(32);not null;index:ix_email_logs_type"`
	OrderID           *string   `gorm:"type:char(36);index:ix_email_logs_order"`
	BodyHTML          string    `gorm:"type:text;not null"`
	Status            string    `gorm:"type:varchar(16);not null"`
	Error             *string   `gorm:"type:varchar(512)"`
	ProviderMessageID *string   `gorm:"type:varchar(128)"`
	CreatedAt         time.Time `gorm:"not null;index:ix_email_logs_created_at"`
}

func (EmailLog) TableName() string { return "email_logs" }

// OutboxMessage is an email waiting for delivery by the outbox worker.
type OutboxMessage struct {
	ID            string    `gorm:"type:char(36);primaryKey"`
	Recipients    string    `gorm:"type:varchar(2048);not null"`
	Subject       string    `gorm:"type:varchar(255);not null"`
	BodyHTML      string    `gorm:"type:text;not null"`
	Type          string    `gorm:"type:varchar(32);not null"`
	OrderID       *string   `gorm:"type:char(36)"`
	Status        string    `gorm:"type:varchar(16);not null;index:ix_email_outbox_due,priority:1"`
	Attempts      int       `gorm:"not null;default:0"`
	NextAttemptAt time.Time `gorm:"not null;index:ix_email_outbox_due,priority:2"`
	LastError     *string   `gorm:"type:varchar(512)"`
	SentAt        *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (OutboxMessage) TableName() string { return "email_outbox" }

func (m OutboxMessage) RecipientList() []string { return splitRecipients(m.Recipients) }

// AbandonedCartReminder is a captured cart awaiting a nudge.
type AbandonedCartReminder struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Email       string         `gorm:"type:varchar(255);not null;index:ix_abandoned_cart_email"`
	Name        string         `gorm:"type:varchar(255);not null;default:''"`
	CartJSON    datatypes.JSON `gorm:"type:json;not null"`
	CreatedAt   time.Time      `gorm:"not null;index:ix_abandoned_cart_due,priority:2"`
	NudgeSentAt *time.Time     `gorm:"index:ix_abandoned_cart_due,priority:1"`
}

func (AbandonedCartReminder) TableName() string { return "abandoned_cart_reminders" }

// CartLine is one captured cart line.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
}

type NewsletterSubscriber struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_newsletter_subscribers_email"`
	Name           string    `gorm:"type:varchar(255);not null;default:''"`
	SubscribedAt   time.Time `gorm:"not null"`
	UnsubscribedAt *time.Time
}

func (NewsletterSubscriber) TableName() string { return "newsletter_subscribers" }

func joinRecipients(to []string) string { return strings.Join(to, ", ") }

func splitRecipients(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
