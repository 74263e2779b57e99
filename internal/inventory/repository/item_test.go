package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	apperrors "github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/testutil"
)

func TestItemCreateAppliesDefaults(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	repo := repository.NewItemRepository(s.MockDB.DB)

	s.MockDB.ExpectQuery("INSERT INTO inventory_items").
		WithArgs(testutil.AnyUUID{}, "Latex Gloves", nil, "piece", int64(250), nil, nil, 30, true).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(time.Now(), time.Now()))

	item := &repository.Item{
		Name:           "Latex Gloves",
		UnitPriceCents: 250,
		BatchTracking:  true,
	}
	require.NoError(t, repo.Create(context.Background(), item))

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "piece", item.Unit)
	assert.Equal(t, 30, item.ExpiryAlertDays)
	assert.True(t, item.IsActive)
}

func TestItemGetByIDSkipsInactive(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	repo := repository.NewItemRepository(s.MockDB.DB)

	s.MockDB.ExpectQuery("SELECT * FROM inventory_items WHERE id = $1 AND is_active").
		WithArgs("3f6f5a3c-6f7a-4c8e-9f3b-0f3a2c1d4e5f").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "3f6f5a3c-6f7a-4c8e-9f3b-0f3a2c1d4e5f")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestItemDeleteIsSoft(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	repo := repository.NewItemRepository(s.MockDB.DB)

	id := "3f6f5a3c-6f7a-4c8e-9f3b-0f3a2c1d4e5f"

	t.Run("flips is_active", func(t *testing.T) {
		s.MockDB.ExpectExec("UPDATE inventory_items SET is_active = FALSE").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), id))
	})

	t.Run("already deleted", func(t *testing.T) {
		s.MockDB.ExpectExec("UPDATE inventory_items SET is_active = FALSE").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), id)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestItemListFiltersInactive(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	repo := repository.NewItemRepository(s.MockDB.DB)

	now := time.Now()
	s.MockDB.ExpectQuery("SELECT COUNT(*) FROM inventory_items WHERE is_active").
		WillReturnRows(testutil.MockRows("count").AddRow(1))
	s.MockDB.ExpectQuery("SELECT * FROM inventory_items WHERE is_active").
		WillReturnRows(testutil.MockRows(
			"id", "name", "description", "unit", "unit_price_cents",
			"sub_category_id", "supplier_id", "expiry_alert_days",
			"batch_tracking", "is_active", "created_at", "updated_at",
		).AddRow(
			"3f6f5a3c-6f7a-4c8e-9f3b-0f3a2c1d4e5f", "Latex Gloves", nil, "box", int64(250),
			nil, nil, 30, true, true, now, now,
		))

	items, total, err := repo.List(context.Background(), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(250), items[0].UnitPriceCents)
	assert.True(t, items[0].BatchTracking)
}

func TestListBatchStockFallsBackToItemPrice(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	repo := repository.NewItemRepository(s.MockDB.DB)

	s.MockDB.ExpectQuery("COALESCE(b.unit_price_cents, i.unit_price_cents)").
		WillReturnRows(testutil.MockRows(
			"batch_id", "item_id", "item_name", "unit", "supplier_id",
			"batch_number", "current_stock", "minimum_stock",
			"unit_price_cents", "expiry_date", "expiry_alert_days",
		).AddRow(
			"1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f", "3f6f5a3c-6f7a-4c8e-9f3b-0f3a2c1d4e5f",
			"Latex Gloves", "box", nil, "LOT-7", 12, 3, int64(250), nil, 30,
		))

	rows, err := repo.ListBatchStock(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].UnitPriceCents)
	assert.Equal(t, int64(250), *rows[0].UnitPriceCents)
}
