package sales

import (
	"time"

	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/shared"
)

// CanSell reports whether requestedQty units of item may be sold at now:
// enough stock remains (boundary inclusive) and the expiry day is today or later.
func CanSell(item *catalog.Medicine, requestedQty int, now time.Time) bool {
	return CheckSellable(item, requestedQty, now) == nil
}

// CheckSellable is CanSell with the reason. Expiry is checked before
// quantity so an expired batch is reported as such even when it is also short.
func CheckSellable(item *catalog.Medicine, requestedQty int, now time.Time) error {
	if requestedQty < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
	}
	if item.IsExpired(now) {
		return shared.ErrExpiredItem
	}
	if item.Quantity < requestedQty {
		return shared.ErrInsufficientStock
	}
	return nil
}
