// Package provider holds the outbound clients for bill-payment, banking,
// identity and market-data partners. Every value-moving call returns a
// Result: transport failures and partner declines both surface as
// Success=false so callers finalize the ledger exactly once either way.
package provider

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/padimoney/padimoney-backend/internal/models"
)

// Result is the normalized outcome of a partner call.
type Result struct {
	Success     bool
	Reference   string
	Message     string
	ExternalRef string
}

type AirtimePurchase struct {
	Network     string
	PhoneNumber string
	AmountKobo  int64
	RequestID   string
}

type DataPurchase struct {
	Network     string
	PhoneNumber string
	PlanID      string
	RequestID   string
}

type EpinPurchase struct {
	ExamType  string
	Quantity  int
	RequestID string
}

// AirtimeProvider tops up a phone number.
type AirtimeProvider interface {
	PurchaseAirtime(ctx context.Context, p AirtimePurchase) Result
}

// DataProvider sells data bundles and lists the purchasable plans.
type DataProvider interface {
	PurchaseData(ctx context.Context, p DataPurchase) Result
	GetPlans(ctx context.Context, network string) ([]models.DataPlan, error)
}

// EpinProvider sells exam result-checker PINs and lists unit prices.
type EpinProvider interface {
	PurchaseEpin(ctx context.Context, p EpinPurchase) Result
	GetExamPrices(ctx context.Context) ([]models.ExamPrice, error)
}

// VirtualAccountRequest carries the customer details the banking partner
// needs to open a permanent collection account.
type VirtualAccountRequest struct {
	Email       string
	BVN         string
	FirstName   string
	LastName    string
	PhoneNumber string
	Narration   string
	TxRef       string
}

type VirtualAccountDetails struct {
	AccountNumber string
	BankName      string
	OrderRef      string
}

// BankingPartner provisions dedicated virtual accounts.
type BankingPartner interface {
	CreateVirtualAccount(ctx context.Context, req VirtualAccountRequest) (*VirtualAccountDetails, error)
}

// BVNCheck is the bureau's verdict on a bank verification number.
type BVNCheck struct {
	IsValid      bool
	CustomerName string
	Message      string
}

// IdentityBureau resolves BVNs against the national registry.
type IdentityBureau interface {
	VerifyBVN(ctx context.Context, bvn string) (*BVNCheck, error)
}

// RateSource quotes cryptocurrency prices in USD.
type RateSource interface {
	GetRates(ctx context.Context, ids []string) ([]models.CryptoRate, error)
	GetRate(ctx context.Context, id string) (decimal.Decimal, error)
}
