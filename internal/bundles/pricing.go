package bundles

import (
	"sort"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The functions in this file are pure: they operate on order slices whose
// Product (with Unit) and Group relations are loaded, and never touch storage.

func relevantQuantity(o models.Order, useDelivered bool) int64 {
	if useDelivered {
		return o.EffectiveDelivered()
	}
	return o.Amount
}

// TotalCost sums quantity times product multiplier over the orders. With
// useDelivered the effective-delivered quantity is charged, otherwise the
// ordered amount. Unpriced products contribute zero; no rounding happens here.
func TotalCost(orders []models.Order, useDelivered bool) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Product == nil {
			continue
		}
		qty := relevantQuantity(o, useDelivered)
		if qty == 0 {
			continue
		}
		total = total.Add(o.Product.Multiplier().Mul(decimal.NewFromInt(qty)))
	}
	return total
}

// ContainsUnknownPrice reports whether any order with a positive relevant
// quantity references a product without a price. TotalCost silently charges
// zero for such orders, so callers must consult this before billing.
func ContainsUnknownPrice(orders []models.Order, useDelivered bool) bool {
	for _, o := range orders {
		if relevantQuantity(o, useDelivered) <= 0 {
			continue
		}
		if o.Product != nil && !o.Product.HasPrice() {
			return true
		}
	}
	return false
}

// SummarizeOrders groups a bundle's orders by product, summing ordered
// amounts across groups. Products whose summed amount is zero or less are
// dropped. The result is sorted ascending by product name, matching the
// product list ordering everywhere else.
func SummarizeOrders(orders []models.Order) OrderSummary {
	totals := map[uuid.UUID]*ProductTotal{}
	for _, o := range orders {
		if o.Product == nil {
			continue
		}
		pt, ok := totals[o.ProductID]
		if !ok {
			pt = &ProductTotal{Product: *o.Product}
			totals[o.ProductID] = pt
		}
		pt.TotalAmount += o.Amount
	}

	summary := OrderSummary{
		Products:        make([]ProductTotal, 0, len(totals)),
		OrderPriceTotal: decimal.Zero,
	}
	for _, pt := range totals {
		if pt.TotalAmount <= 0 {
			continue
		}
		pt.OrderPrice = pt.Product.Multiplier().Mul(decimal.NewFromInt(pt.TotalAmount))
		summary.Products = append(summary.Products, *pt)
	}
	sort.Slice(summary.Products, func(i, j int) bool {
		return summary.Products[i].Product.Name < summary.Products[j].Product.Name
	})
	for _, pt := range summary.Products {
		summary.OrderPriceTotal = summary.OrderPriceTotal.Add(pt.OrderPrice)
	}
	return summary
}

// SummarizeOutput walks a bundle's orders once and produces the delivery
// reconciliation view: per-group order rows with the cost each group owes
// (effective-delivered quantities), per-product delivered totals, and the
// grand total over all groups. Groups without orders are absent. Products
// that were never ordered (summed amount <= 0) are excluded from the
// per-product totals even when a delivered value exists, mirroring the
// exclusion rule of SummarizeOrders.
func SummarizeOutput(orders []models.Order) OutputSummary {
	groupOutputs := map[uuid.UUID]*GroupOutput{}
	delivered := map[uuid.UUID]*ProductDelivered{}
	ordered := map[uuid.UUID]int64{}

	for _, o := range orders {
		if o.Product == nil || o.Group == nil {
			continue
		}

		g, ok := groupOutputs[o.GroupID]
		if !ok {
			g = &GroupOutput{Group: *o.Group, TotalCost: decimal.Zero}
			groupOutputs[o.GroupID] = g
		}
		g.Orders = append(g.Orders, o)
		qty := o.EffectiveDelivered()
		g.TotalCost = g.TotalCost.Add(o.Product.Multiplier().Mul(decimal.NewFromInt(qty)))

		d, ok := delivered[o.ProductID]
		if !ok {
			d = &ProductDelivered{Product: *o.Product}
			delivered[o.ProductID] = d
		}
		d.TotalDelivered += qty
		ordered[o.ProductID] += o.Amount
	}

	summary := OutputSummary{
		Groups:     make([]GroupOutput, 0, len(groupOutputs)),
		Products:   make([]ProductDelivered, 0, len(delivered)),
		GrandTotal: decimal.Zero,
	}
	for _, g := range groupOutputs {
		sort.Slice(g.Orders, func(i, j int) bool {
			return g.Orders[i].Product.Name < g.Orders[j].Product.Name
		})
		summary.Groups = append(summary.Groups, *g)
		summary.GrandTotal = summary.GrandTotal.Add(g.TotalCost)
	}
	sort.Slice(summary.Groups, func(i, j int) bool {
		return summary.Groups[i].Group.Name < summary.Groups[j].Group.Name
	})
	for id, d := range delivered {
		if ordered[id] <= 0 {
			continue
		}
		summary.Products = append(summary.Products, *d)
	}
	sort.Slice(summary.Products, func(i, j int) bool {
		return summary.Products[i].Product.Name < summary.Products[j].Product.Name
	})
	return summary
}
