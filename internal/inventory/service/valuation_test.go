package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/pkg/testutil"
)

func stockRow(itemID, itemName string, current, minimum int, price *int64, expiry *time.Time, alertDays int) repository.BatchStock {
	return repository.BatchStock{
		BatchID:         itemID + "-batch",
		ItemID:          itemID,
		ItemName:        itemName,
		Unit:            "piece",
		BatchNumber:     "B-001",
		CurrentStock:    current,
		MinimumStock:    minimum,
		UnitPriceCents:  price,
		ExpiryDate:      expiry,
		ExpiryAlertDays: alertDays,
	}
}

func TestTotalValueCents(t *testing.T) {
	t.Run("sums price times stock across batches", func(t *testing.T) {
		rows := []repository.BatchStock{
			stockRow("item-1", "Gloves", 10, 2, testutil.PtrInt64(250), nil, 30),
			stockRow("item-1", "Gloves", 4, 2, testutil.PtrInt64(300), nil, 30),
			stockRow("item-2", "Composite", 3, 1, testutil.PtrInt64(12500), nil, 30),
		}

		// 10*250 + 4*300 + 3*12500
		assert.Equal(t, int64(41200), TotalValueCents(rows))
	})

	t.Run("batches without a price contribute zero", func(t *testing.T) {
		rows := []repository.BatchStock{
			stockRow("item-1", "Gloves", 10, 2, nil, nil, 30),
			stockRow("item-2", "Composite", 2, 1, testutil.PtrInt64(500), nil, 30),
		}

		assert.Equal(t, int64(1000), TotalValueCents(rows))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, int64(0), TotalValueCents(nil))
	})
}

func TestGroupLowStock(t *testing.T) {
	t.Run("stock equal to minimum is low", func(t *testing.T) {
		rows := []repository.BatchStock{
			stockRow("item-1", "Gloves", 5, 5, nil, nil, 30),
			stockRow("item-2", "Composite", 6, 5, nil, nil, 30),
		}

		groups := GroupLowStock(rows)
		require.Len(t, groups, 1)
		assert.Equal(t, "item-1", groups[0].ItemID)
		assert.Equal(t, 5, groups[0].TotalStock)
	})

	t.Run("groups keep first-seen item order", func(t *testing.T) {
		rows := []repository.BatchStock{
			stockRow("item-b", "Burs", 0, 3, nil, nil, 30),
			stockRow("item-a", "Anesthetic", 1, 3, nil, nil, 30),
			stockRow("item-b", "Burs", 2, 3, nil, nil, 30),
		}

		groups := GroupLowStock(rows)
		require.Len(t, groups, 2)
		assert.Equal(t, "item-b", groups[0].ItemID)
		assert.Equal(t, "item-a", groups[1].ItemID)
		assert.Len(t, groups[0].Batches, 2)
		assert.Equal(t, 2, groups[0].TotalStock)
	})

	t.Run("no low batches yields empty slice", func(t *testing.T) {
		rows := []repository.BatchStock{
			stockRow("item-1", "Gloves", 50, 5, nil, nil, 30),
		}

		groups := GroupLowStock(rows)
		assert.NotNil(t, groups)
		assert.Empty(t, groups)
	})
}

func TestGroupExpiringSoon(t *testing.T) {
	today := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	t.Run("expiry on the cutoff day is included", func(t *testing.T) {
		onCutoff := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
		pastCutoff := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

		rows := []repository.BatchStock{
			stockRow("item-1", "Anesthetic", 10, 2, nil, &onCutoff, 30),
			stockRow("item-2", "Composite", 10, 2, nil, &pastCutoff, 30),
		}

		groups := GroupExpiringSoon(rows, today)
		require.Len(t, groups, 1)
		assert.Equal(t, "item-1", groups[0].ItemID)
	})

	t.Run("already expired batches are included", func(t *testing.T) {
		expired := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		rows := []repository.BatchStock{
			stockRow("item-1", "Anesthetic", 10, 2, nil, &expired, 30),
		}

		groups := GroupExpiringSoon(rows, today)
		require.Len(t, groups, 1)
	})

	t.Run("batches without expiry are skipped", func(t *testing.T) {
		soon := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

		rows := []repository.BatchStock{
			stockRow("item-1", "Gloves", 10, 2, nil, nil, 30),
			stockRow("item-2", "Anesthetic", 10, 2, nil, &soon, 30),
		}

		groups := GroupExpiringSoon(rows, today)
		require.Len(t, groups, 1)
		assert.Equal(t, "item-2", groups[0].ItemID)
	})

	t.Run("alert window comes from the item", func(t *testing.T) {
		soon := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

		rows := []repository.BatchStock{
			stockRow("item-1", "Anesthetic", 10, 2, nil, &soon, 7),
			stockRow("item-2", "Composite", 10, 2, nil, &soon, 5),
		}

		groups := GroupExpiringSoon(rows, today)
		require.Len(t, groups, 1)
		assert.Equal(t, "item-1", groups[0].ItemID)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		soon := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
		rows := []repository.BatchStock{
			stockRow("item-1", "Anesthetic", 1, 2, nil, &soon, 30),
		}

		first := GroupExpiringSoon(rows, today)
		second := GroupExpiringSoon(rows, today)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, rows[0].CurrentStock)
	})
}
