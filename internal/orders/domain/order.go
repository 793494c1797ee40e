package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoSize is the stored sentinel for lines without a size variant.
const NoSize = "N/A"

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentPSE            PaymentMethod = "pse"
)

// paymentAliases maps the checkout-form vocabulary onto the storage enum.
var paymentAliases = map[string]PaymentMethod{
	"cashOnDelivery":   PaymentCashOnDelivery,
	"cod":              PaymentCashOnDelivery,
	"cash_on_delivery": PaymentCashOnDelivery,
	"card":             PaymentCard,
	"creditCard":       PaymentCard,
	"transfer":         PaymentBankTransfer,
	"bank_transfer":    PaymentBankTransfer,
	"pse":              PaymentPSE,
	"PSE":              PaymentPSE,
}

// NormalizePaymentMethod resolves a caller-supplied method name. Unknown
// non-empty values pass through unchanged; an empty value defaults to
// cash on delivery.
func NormalizePaymentMethod(raw string) PaymentMethod {
	if m, ok := paymentAliases[raw]; ok {
		return m
	}
	if raw == "" {
		return PaymentCashOnDelivery
	}
	return PaymentMethod(raw)
}

// Order is one purchase attempt. It is created exactly once inside the
// placement transaction and never physically deleted; cancellation is a
// status transition.
type Order struct {
	ID              int64
	OrderNumber     string
	UserID          int64
	Status          Status
	RejectionReason string

	CustomerName string
	DocumentID   string
	ContactPhone string
	Email        string

	ShippingAddress   string
	AddressReference  string
	DeliveryNotes     string
	PreferredSchedule string

	PaymentMethod PaymentMethod
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal

	IdempotencyKey string

	CreatedAt time.Time
	UpdatedAt time.Time

	Lines []OrderLine
}

// OrderLine snapshots one catalog item at order time, so later catalog
// edits cannot rewrite order history. Immutable after creation.
type OrderLine struct {
	ID      int64
	OrderID int64

	ProductID          int64
	ProductName        string
	ProductDescription string
	ProductImage       string

	Quantity  int
	Size      string
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal

	CreatedAt time.Time
}
