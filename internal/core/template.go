package core

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNoActiveItems is returned when a template settlement has no item
// whose order is still active.
var ErrNoActiveItems = errors.New("no template items reference an active order")

// CopyFromTemplate copies a prior settlement's items into a new in-progress
// item list: hours reset to zero, rates preserved, fresh ids. Items whose
// order is no longer active are silently dropped. When nothing survives the
// filter the copy fails and the caller leaves its form unchanged.
func CopyFromTemplate(template Settlement, orders []Order) ([]SettlementItem, error) {
	active := make(map[string]struct{})
	for _, o := range orders {
		if o.Status == StatusActive {
			active[o.ID] = struct{}{}
		}
	}

	var copied []SettlementItem
	for _, item := range template.Items {
		if _, ok := active[item.OrderID]; !ok {
			continue
		}
		copied = append(copied, SettlementItem{
			ID:       uuid.NewString(),
			OrderID:  item.OrderID,
			ItemType: item.ItemType,
			Hours:    0,
			Rate:     item.Rate,
		})
	}
	if len(copied) == 0 {
		return nil, ErrNoActiveItems
	}
	return copied, nil
}
