package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemInput struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	Size        string          `json:"size"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type PersonalInfo struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

type DeliveryInfo struct {
	Address   string `json:"address"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
	Schedule  string `json:"schedule"`
}

type PaymentInfo struct {
	Method string `json:"method"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type CreateOrderRequest struct {
	Items          []ItemInput  `json:"items"`
	PersonalInfo   PersonalInfo `json:"personal_info"`
	DeliveryInfo   DeliveryInfo `json:"delivery_info"`
	PaymentInfo    PaymentInfo  `json:"payment_info"`
	Totals         Totals       `json:"totals"`
	IdempotencyKey string       `json:"idempotency_key"`
}

type CreateOrderResponse struct {
	OrderNumber      string         `json:"order_number"`
	Status           ExternalStatus `json:"status"`
	AlreadyProcessed bool           `json:"already_processed,omitempty"`
}

type StatusUpdateRequest struct {
	Status ExternalStatus `json:"status"`
	Reason string         `json:"reason"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// OrderView is the caller-facing projection of an order; statuses are in
// the external vocabulary.
type OrderView struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          ExternalStatus  `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CustomerName    string          `json:"customer_name"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	Lines           []LineView      `json:"lines"`
}

type LineView struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Size         string          `json:"size"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

func ToView(o *Order) OrderView {
	v := OrderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          ToExternal(o.Status),
		RejectionReason: o.RejectionReason,
		CustomerName:    o.CustomerName,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal,
		Shipping:        o.Shipping,
		Total:           o.Total,
		CreatedAt:       o.CreatedAt,
		Lines:           make([]LineView, 0, len(o.Lines)),
	}
	for _, line := range o.Lines {
		v.Lines = append(v.Lines, LineView{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			ProductImage: line.ProductImage,
			Quantity:     line.Quantity,
			Size:         line.Size,
			UnitPrice:    line.UnitPrice,
			Subtotal:     line.Subtotal,
		})
	}
	return v
}
