package domain

import "context"

// OrderFlagsRepository writes rule flags onto existing order records.
// ApplyFlags returns ErrOrderNotFound when no order matches flags.OrderID;
// it never creates orders.
type OrderFlagsRepository interface {
	ApplyFlags(ctx context.Context, flags *OrderRuleFlags) error
	FindFlags(ctx context.Context, orderID string) (*OrderRuleFlags, error)
}
