package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Profile struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	BalanceKobo int64     `json:"balance_kobo"`
	KYCTier     int32     `json:"kyc_tier"`
	BVN         *string   `json:"bvn,omitempty"`
	Status      string    `json:"status"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Type        string          `json:"type"`
	AmountKobo  int64           `json:"amount_kobo"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	Reference   *string         `json:"reference,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type KYCRequest struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	DocumentType string     `json:"document_type"`
	Status       string     `json:"status"`
	AdminNote    string     `json:"admin_note"`
	CreatedAt    time.Time  `json:"created_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

type VirtualAccount struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Provider      string          `json:"provider"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	Currency      string          `json:"currency"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Beneficiary is a saved telco recipient; the carrier is re-derived from the
// phone prefix on write.
type Beneficiary struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Network   string    `json:"network"`
	CreatedAt time.Time `json:"created_at"`
}

type CommunicationLog struct {
	ID        uuid.UUID `json:"id"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OutboxEvent is a durably queued side effect written in the same database
// transaction as the state change that produced it.
type OutboxEvent struct {
	ID            int64           `json:"id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	Attempts      int32           `json:"attempts"`
	NextAttemptAt time.Time       `json:"next_attempt_at"`
	ClaimedAt     *time.Time      `json:"claimed_at,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Contact is a resolved bulk-communication recipient.
type Contact struct {
	UserID  uuid.UUID
	Name    string
	Address string // email address or phone number depending on channel
}

type DataPlan struct {
	PlanID    string `json:"plan_id"`
	Network   string `json:"network"`
	Name      string `json:"name"`
	Bucket    string `json:"bucket"`
	Validity  string `json:"validity"`
	PriceKobo int64  `json:"price_kobo"`
}

type ExamPrice struct {
	ExamType  string `json:"exam_type"`
	Name      string `json:"name"`
	PriceKobo int64  `json:"price_kobo"`
}

type CryptoRate struct {
	ID           string          `json:"id"`
	USD          decimal.Decimal `json:"usd"`
	USD24hChange decimal.Decimal `json:"usd_24h_change"`
}
