package service_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	apperrors "github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	suite.MustMigrate(ctx, testutil.InventoryMigrations())
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newTestService() *service.InventoryService {
	return service.NewInventoryService(
		suite.DB,
		repository.NewItemRepository(suite.DB),
		repository.NewBatchRepository(suite.DB),
		repository.NewSupplierRepository(suite.DB),
		repository.NewActivityRepository(suite.DB),
		nil, // no event publisher in tests
		suite.Logger,
	)
}

func newTestReceivingService() *service.ReceivingService {
	return service.NewReceivingService(
		suite.DB,
		repository.NewReceivingRepository(suite.DB),
		repository.NewItemRepository(suite.DB),
		repository.NewBatchRepository(suite.DB),
		repository.NewActivityRepository(suite.DB),
		nil,
		suite.Logger,
	)
}

func seedItemWithBatch(t *testing.T, ctx context.Context, stock, minimum int, price *int64) (*repository.Item, *repository.Batch) {
	t.Helper()

	itemRepo := repository.NewItemRepository(suite.DB)
	batchRepo := repository.NewBatchRepository(suite.DB)

	fx := suite.Fixtures.Item()
	item := &repository.Item{
		ID:              fx.ID,
		Name:            fx.Name,
		Unit:            fx.Unit,
		UnitPriceCents:  fx.UnitPriceCents,
		ExpiryAlertDays: fx.ExpiryAlertDays,
		BatchTracking:   fx.BatchTracking,
	}
	require.NoError(t, itemRepo.Create(ctx, item))

	bfx := suite.Fixtures.Batch(item.ID, testutil.WithStock(stock, minimum))
	batch := &repository.Batch{
		ID:             bfx.ID,
		ItemID:         item.ID,
		BatchNumber:    bfx.BatchNumber,
		CurrentStock:   stock,
		MinimumStock:   minimum,
		UnitPriceCents: price,
	}
	require.NoError(t, batchRepo.Create(ctx, batch))

	return item, batch
}

func TestIssueStock(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	_, batch := seedItemWithBatch(t, ctx, 100, 10, testutil.PtrInt64(500))

	adj, err := svc.IssueStock(ctx, batch.ID, &service.IssueStockRequest{
		Quantity: 30,
		Reason:   "treatment",
	})
	require.NoError(t, err)

	assert.Equal(t, 100, adj.PreviousStock)
	assert.Equal(t, 70, adj.NewStock)
	assert.Equal(t, 30, adj.Quantity)
	assert.Equal(t, "treatment", adj.Reason)

	updated, err := svc.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, updated.CurrentStock)

	adjustments, err := svc.ListAdjustments(ctx, batch.ID, 10)
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, adj.ID, adjustments[0].ID)

	entries, total, err := svc.ListResourceActivity(ctx, "batch", batch.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "issue_stock", entries[0].Action)
}

func TestIssueStock_InsufficientStock(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	_, batch := seedItemWithBatch(t, ctx, 5, 2, nil)

	_, err := svc.IssueStock(ctx, batch.ID, &service.IssueStockRequest{
		Quantity: 6,
		Reason:   "treatment",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientStock))

	// Nothing changed
	updated, err := svc.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.CurrentStock)

	adjustments, err := svc.ListAdjustments(ctx, batch.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

func TestIssueStock_ExactStock(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	_, batch := seedItemWithBatch(t, ctx, 5, 2, nil)

	adj, err := svc.IssueStock(ctx, batch.ID, &service.IssueStockRequest{
		Quantity: 5,
		Reason:   "wasted",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, adj.NewStock)
}

func TestIssueStock_BatchNotFound(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.IssueStock(ctx, "00000000-0000-0000-0000-0000000000aa", &service.IssueStockRequest{
		Quantity: 1,
		Reason:   "treatment",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestReceiveStock(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestReceivingService()
	invSvc := newTestService()

	itemRepo := repository.NewItemRepository(suite.DB)
	fx := suite.Fixtures.Item()
	item := &repository.Item{ID: fx.ID, Name: fx.Name, Unit: fx.Unit, ExpiryAlertDays: 30, BatchTracking: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	expiry := time.Now().AddDate(1, 0, 0)
	result, err := svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{
			{ItemID: item.ID, BatchNumber: "LOT-A", Quantity: 50, UnitPriceCents: testutil.PtrInt64(200), MinimumStock: 5, ExpiryDate: &expiry},
			{ItemID: item.ID, BatchNumber: "LOT-B", Quantity: 20, UnitPriceCents: testutil.PtrInt64(150)},
		},
	})
	require.NoError(t, err)

	// Totals are computed server side: 50*200 + 20*150
	assert.Equal(t, int64(13000), result.TotalAmountCents)
	assert.NotEmpty(t, result.ReceivingNumber)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, int64(10000), result.Lines[0].LineTotalCents)
	assert.Equal(t, int64(3000), result.Lines[1].LineTotalCents)

	batches, err := invSvc.ListBatchesByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	// Receiving the same batch number again adds to the existing batch
	_, err = svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{
			{ItemID: item.ID, BatchNumber: "LOT-A", Quantity: 25},
		},
	})
	require.NoError(t, err)

	batches, err = invSvc.ListBatchesByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	var lotA *repository.Batch
	for _, b := range batches {
		if b.BatchNumber == "LOT-A" {
			lotA = b
		}
	}
	require.NotNil(t, lotA)
	assert.Equal(t, 75, lotA.CurrentStock)
}

func TestReceiveStock_UnknownItem(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestReceivingService()

	_, err := svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{
			{ItemID: "00000000-0000-0000-0000-0000000000bb", BatchNumber: "LOT-X", Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateAndDeleteReceiving(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestReceivingService()
	invSvc := newTestService()

	itemRepo := repository.NewItemRepository(suite.DB)
	fx := suite.Fixtures.Item()
	item := &repository.Item{ID: fx.ID, Name: fx.Name, Unit: fx.Unit, ExpiryAlertDays: 30, BatchTracking: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	result, err := svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{
			{ItemID: item.ID, BatchNumber: "LOT-EDIT", Quantity: 10, UnitPriceCents: testutil.PtrInt64(100)},
		},
	})
	require.NoError(t, err)

	// Header edits leave lines and the computed total alone
	notes := "corrected delivery note"
	updated, err := svc.UpdateReceiving(ctx, result.ID, &service.UpdateReceivingRequest{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	assert.Equal(t, int64(1000), updated.TotalAmountCents)
	require.Len(t, updated.Lines, 1)

	require.NoError(t, svc.DeleteReceiving(ctx, result.ID))

	_, err = svc.GetReceiving(ctx, result.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	// Deleting the document does not claw back the booked stock
	batches, err := invSvc.ListBatchesByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 10, batches[0].CurrentStock)

	err = svc.DeleteReceiving(ctx, result.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestReceivingNumbersAreSequential(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestReceivingService()

	itemRepo := repository.NewItemRepository(suite.DB)
	fx := suite.Fixtures.Item()
	item := &repository.Item{ID: fx.ID, Name: fx.Name, Unit: fx.Unit, ExpiryAlertDays: 30, BatchTracking: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	first, err := svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{{ItemID: item.ID, BatchNumber: "SEQ-1", Quantity: 1}},
	})
	require.NoError(t, err)

	second, err := svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{{ItemID: item.ID, BatchNumber: "SEQ-2", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ReceivingNumber, second.ReceivingNumber)
	assert.Greater(t, second.ReceivingNumber, first.ReceivingNumber)
}

func TestConcurrentReceivingsGetDistinctNumbers(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestReceivingService()

	itemRepo := repository.NewItemRepository(suite.DB)
	fx := suite.Fixtures.Item()
	item := &repository.Item{ID: fx.ID, Name: fx.Name, Unit: fx.Unit, ExpiryAlertDays: 30, BatchTracking: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	const workers = 4
	numbers := make(chan string, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
				Lines: []service.ReceiveLineRequest{
					{ItemID: item.ID, BatchNumber: fmt.Sprintf("CONC-%d", n), Quantity: 1},
				},
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- result.ReceivingNumber
		}(i)
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent receiving failed: %v", err)
	}

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "receiving number %s allocated twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, workers)
}

func TestSubCategoryCRUD(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	repo := repository.NewSupplierRepository(suite.DB)

	desc := "filling and bonding materials"
	sc := &repository.SubCategory{Name: "Restoratives", Description: &desc}
	require.NoError(t, repo.CreateSubCategory(ctx, sc))

	got, err := repo.GetSubCategory(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Restoratives", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)

	got.Name = "Restorative Materials"
	got.Description = nil
	require.NoError(t, repo.UpdateSubCategory(ctx, got))

	updated, err := repo.GetSubCategory(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Restorative Materials", updated.Name)
	assert.Nil(t, updated.Description)

	require.NoError(t, repo.DeleteSubCategory(ctx, sc.ID))

	_, err = repo.GetSubCategory(ctx, sc.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = repo.UpdateSubCategory(ctx, got)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStockSummary(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()

	// Isolate from other tests' data
	suite.TruncateTables(t, ctx, "inventory_items", "activity_log")

	svc := newTestService()

	_, _ = seedItemWithBatch(t, ctx, 100, 10, testutil.PtrInt64(250))
	_, low := seedItemWithBatch(t, ctx, 3, 5, testutil.PtrInt64(1000))
	_, _ = seedItemWithBatch(t, ctx, 50, 5, nil)

	summary, err := svc.GetStockSummary(ctx)
	require.NoError(t, err)

	// 100*250 + 3*1000; the unpriced batch contributes nothing
	assert.Equal(t, int64(28000), summary.TotalValueCents)
	assert.Equal(t, 3, summary.BatchCount)

	require.Len(t, summary.LowStock, 1)
	assert.Equal(t, low.ItemID, summary.LowStock[0].ItemID)
	assert.Empty(t, summary.ExpiringSoon)
}

func TestItemPriceBackstopsUnpricedBatches(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()

	suite.TruncateTables(t, ctx, "inventory_items", "activity_log")

	svc := newTestService()
	itemRepo := repository.NewItemRepository(suite.DB)
	batchRepo := repository.NewBatchRepository(suite.DB)

	fx := suite.Fixtures.Item(testutil.WithItemPrice(400))
	item := &repository.Item{
		ID:              fx.ID,
		Name:            fx.Name,
		Unit:            fx.Unit,
		UnitPriceCents:  fx.UnitPriceCents,
		ExpiryAlertDays: fx.ExpiryAlertDays,
		BatchTracking:   true,
	}
	require.NoError(t, itemRepo.Create(ctx, item))

	// One batch without a price, one with its own
	require.NoError(t, batchRepo.Create(ctx, &repository.Batch{
		ItemID: item.ID, BatchNumber: "NO-PRICE", CurrentStock: 10,
	}))
	require.NoError(t, batchRepo.Create(ctx, &repository.Batch{
		ItemID: item.ID, BatchNumber: "OWN-PRICE", CurrentStock: 2,
		UnitPriceCents: testutil.PtrInt64(100),
	}))

	// 10*400 from the item's price plus 2*100 from the batch's own
	total, err := svc.GetTotalValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4200), total)
}

func TestCreateItemKeepsPriceAndTracking(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	fx := suite.Fixtures.Item(testutil.WithItemPrice(500), testutil.WithoutBatchTracking())
	item := &repository.Item{
		ID:              fx.ID,
		Name:            fx.Name,
		Unit:            fx.Unit,
		UnitPriceCents:  fx.UnitPriceCents,
		ExpiryAlertDays: fx.ExpiryAlertDays,
		BatchTracking:   fx.BatchTracking,
	}
	require.NoError(t, svc.CreateItem(ctx, item))

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.UnitPriceCents)
	assert.False(t, got.BatchTracking)
	assert.True(t, got.IsActive)
}

func TestDeleteItemIsSoft(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()

	suite.TruncateTables(t, ctx, "inventory_items", "activity_log")

	svc := newTestService()
	item, batch := seedItemWithBatch(t, ctx, 10, 2, testutil.PtrInt64(100))

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	_, err := svc.GetItem(ctx, item.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	items, total, err := svc.ListItems(ctx, "", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, items)

	// The batches drop out of the summary but stay on record
	summary, err := svc.GetStockSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.BatchCount)

	kept, err := svc.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, kept.CurrentStock)

	err = svc.DeleteItem(ctx, item.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSingleImplicitBatchItem(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestReceivingService()
	invSvc := newTestService()

	itemRepo := repository.NewItemRepository(suite.DB)
	fx := suite.Fixtures.Item(testutil.WithoutBatchTracking())
	item := &repository.Item{
		ID:              fx.ID,
		Name:            fx.Name,
		Unit:            fx.Unit,
		ExpiryAlertDays: fx.ExpiryAlertDays,
		BatchTracking:   fx.BatchTracking,
	}
	require.NoError(t, itemRepo.Create(ctx, item))

	_, err := svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{
			{ItemID: item.ID, BatchNumber: "LOT-A", Quantity: 10},
		},
	})
	require.NoError(t, err)

	// A different supplier batch number still lands on the implicit batch
	_, err = svc.ReceiveStock(ctx, &service.ReceiveStockRequest{
		Lines: []service.ReceiveLineRequest{
			{ItemID: item.ID, BatchNumber: "LOT-B", Quantity: 5},
		},
	})
	require.NoError(t, err)

	batches, err := invSvc.ListBatchesByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 15, batches[0].CurrentStock)

	// And a second batch cannot be created by hand either
	err = invSvc.CreateBatch(ctx, &repository.Batch{
		ItemID:      item.ID,
		BatchNumber: "LOT-C",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestExportStockRegister(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	seedItemWithBatch(t, ctx, 10, 2, testutil.PtrInt64(999))

	pdfBytes, err := svc.ExportStockRegister(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}
