package service

import (
	"time"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
)

// ItemGroup collects the batches of one item that match a stock condition.
// Groups keep the order items first appear in the input rows.
type ItemGroup struct {
	ItemID     string                  `json:"item_id"`
	ItemName   string                  `json:"item_name"`
	Unit       string                  `json:"unit"`
	TotalStock int                     `json:"total_stock"`
	Batches    []repository.BatchStock `json:"batches"`
}

// TotalValueCents sums unit price times current stock over all batches.
// Batches without a price contribute nothing.
func TotalValueCents(rows []repository.BatchStock) int64 {
	var total int64
	for _, row := range rows {
		if row.UnitPriceCents == nil {
			continue
		}
		total += *row.UnitPriceCents * int64(row.CurrentStock)
	}
	return total
}

// GroupLowStock groups batches whose stock is at or below the minimum,
// keyed by item in first-seen order.
func GroupLowStock(rows []repository.BatchStock) []ItemGroup {
	return groupBy(rows, func(row repository.BatchStock) bool {
		return row.CurrentStock <= row.MinimumStock
	})
}

// GroupExpiringSoon groups batches expiring within the item's alert window,
// measured in whole days from today inclusive. Batches without an expiry
// date never expire and are skipped.
func GroupExpiringSoon(rows []repository.BatchStock, today time.Time) []ItemGroup {
	day := today.Truncate(24 * time.Hour)
	return groupBy(rows, func(row repository.BatchStock) bool {
		if row.ExpiryDate == nil {
			return false
		}
		cutoff := day.AddDate(0, 0, row.ExpiryAlertDays)
		return !row.ExpiryDate.Truncate(24 * time.Hour).After(cutoff)
	})
}

func groupBy(rows []repository.BatchStock, match func(repository.BatchStock) bool) []ItemGroup {
	groups := make([]ItemGroup, 0)
	index := make(map[string]int)

	for _, row := range rows {
		if !match(row) {
			continue
		}

		i, ok := index[row.ItemID]
		if !ok {
			i = len(groups)
			index[row.ItemID] = i
			groups = append(groups, ItemGroup{
				ItemID:   row.ItemID,
				ItemName: row.ItemName,
				Unit:     row.Unit,
				Batches:  make([]repository.BatchStock, 0, 1),
			})
		}

		groups[i].Batches = append(groups[i].Batches, row)
		groups[i].TotalStock += row.CurrentStock
	}

	return groups
}
