package bundles

import (
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductTotal is one line of the ordering-phase summary: the quantity of a
// product to order from the distributor and its cost.
type ProductTotal struct {
	Product     models.Product  `json:"product"`
	TotalAmount int64           `json:"total_amount"`
	OrderPrice  decimal.Decimal `json:"order_price"`
}

// OrderSummary is the ordering-phase view of a bundle.
type OrderSummary struct {
	Products        []ProductTotal  `json:"products"`
	OrderPriceTotal decimal.Decimal `json:"order_price_total"`
}

// GroupOutput is one group's slice of the output-phase summary.
type GroupOutput struct {
	Group     models.Group    `json:"group"`
	Orders    []models.Order  `json:"orders"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// ProductDelivered totals the effective-delivered quantity of one product
// across all groups.
type ProductDelivered struct {
	Product        models.Product `json:"product"`
	TotalDelivered int64          `json:"total_delivered"`
}

// OutputSummary is the output-phase (delivery reconciliation) view of a
// bundle.
type OutputSummary struct {
	Groups     []GroupOutput      `json:"groups"`
	Products   []ProductDelivered `json:"products"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
}

// RecordOrderInput carries one group's requested quantity for one product.
type RecordOrderInput struct {
	BundleID  uuid.UUID
	GroupID   uuid.UUID
	ProductID uuid.UUID
	Amount    int64
}

// RecordDeliveryInput carries the actually-delivered quantity for one order.
type RecordDeliveryInput struct {
	BundleID  uuid.UUID
	GroupID   uuid.UUID
	ProductID uuid.UUID
	Delivered int64
}

// OrderReceipt is returned after an amount write, with the group's refreshed
// ordering-phase cost.
type OrderReceipt struct {
	Order         models.Order    `json:"order"`
	PriceForGroup decimal.Decimal `json:"price_for_group"`
}

// DeliveryReceipt is returned after a delivery write. ProductDelivered sums
// the raw delivered column across groups (rows without a delivered value do
// not fall back to their amount here; see the repository SumDelivered doc).
type DeliveryReceipt struct {
	Order            models.Order    `json:"order"`
	ProductDelivered int64           `json:"product_delivered"`
	PriceForGroup    decimal.Decimal `json:"price_for_group"`
	PriceForAll      decimal.Decimal `json:"price_for_all"`
}
