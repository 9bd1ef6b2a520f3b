package stockquery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millstock/internal/core/apperror"
	"millstock/internal/core/numerator"
	"millstock/internal/core/types"
	"millstock/internal/domain/activity"
	"millstock/internal/domain/batches"
	"millstock/internal/domain/documents/production"
	"millstock/internal/domain/stockquery"
	"millstock/internal/infrastructure/storage/memory"
	"millstock/internal/ledger"
)

type fixture struct {
	batches    *batches.Service
	production *production.Service
	stock      *stockquery.Service
	ledger     *ledger.Service
}

func newFixture() *fixture {
	ledgerSvc := ledger.NewService(memory.NewLedgerRepository())
	txm := memory.NewTxManager()
	act := activity.NewService(memory.NewActivityStore())
	batchSvc := batches.NewService(memory.NewBatchRepository(), ledgerSvc, txm, act)
	prodRepo := memory.NewProductionRepository()
	prodSvc := production.NewService(prodRepo, batchSvc, ledgerSvc, &numerator.MockGenerator{}, txm, act)
	stockSvc := stockquery.NewService(ledgerSvc, batchSvc, prodRepo, txm)
	return &fixture{batches: batchSvc, production: prodSvc, stock: stockSvc, ledger: ledgerSvc}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func kg(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func (f *fixture) inward(t *testing.T, batchID string, date time.Time, weight float64, bales int) {
	t.Helper()
	require.NoError(t, f.batches.Register(context.Background(), &batches.Batch{
		BatchID:      batchID,
		Date:         date,
		Supplier:     "S1",
		OriginalBale: bales,
		OriginalKg:   kg(weight),
	}))
}

func (f *fixture) produce(t *testing.T, date time.Time, batchID string, consumedKg float64, bales int, count string, producedKg, wasteKg float64) {
	t.Helper()
	require.NoError(t, f.production.Create(context.Background(), &production.Production{
		Date:    date,
		WasteKg: kg(wasteKg),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: batchID, WeightKg: kg(consumedKg), Bales: bales},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: count, WeightKg: kg(producedKg), Bags: 1},
		},
	}))
}

func TestStockByMaterial_YarnByCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 1000, 10)
	f.produce(t, day(2), "B1", 300, 3, "30s", 280, 10)
	f.produce(t, day(3), "B1", 200, 2, "40s", 190, 5)

	yarn, err := f.stock.StockByMaterial(ctx, "Yarn", day(10))
	require.NoError(t, err)
	require.Len(t, yarn, 2)
	assert.Equal(t, 280.0, yarn["30s"].Float64())
	assert.Equal(t, 190.0, yarn["40s"].Float64())

	cotton, err := f.stock.StockByMaterial(ctx, "Cotton", day(10))
	require.NoError(t, err)
	assert.Equal(t, 500.0, cotton["Cotton"].Float64())

	waste, err := f.stock.StockByMaterial(ctx, "Waste", day(10))
	require.NoError(t, err)
	assert.Equal(t, 15.0, waste["Waste"].Float64())
}

func TestStockByMaterial_AsOfDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 1000, 10)
	f.produce(t, day(5), "B1", 300, 3, "30s", 280, 0)

	yarn, err := f.stock.StockByMaterial(ctx, "Yarn", day(3))
	require.NoError(t, err)
	assert.Empty(t, yarn, "no yarn existed before the run")

	cotton, err := f.stock.StockByMaterial(ctx, "Cotton", day(3))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, cotton["Cotton"].Float64())
}

func TestStockByMaterial_OmitsExhaustedPartitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 1000, 10)
	f.produce(t, day(2), "B1", 100, 1, "30s", 95, 0)

	// Dispatch the whole partition back out.
	_, err := f.ledger.Append(ctx, &ledger.Movement{
		Date:      day(3),
		Stream:    ledger.YarnStream("30s"),
		Type:      ledger.TypeOutward,
		Quantity:  kg(-95),
		Reference: "O-x",
	})
	require.NoError(t, err)

	yarn, err := f.stock.StockByMaterial(ctx, "Yarn", day(10))
	require.NoError(t, err)
	_, present := yarn["30s"]
	assert.False(t, present, "zeroed partition must disappear from the report")
}

func TestStockByMaterial_UnknownMaterial(t *testing.T) {
	f := newFixture()
	_, err := f.stock.StockByMaterial(context.Background(), "Silk", day(1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestAvailableBatches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 500, 5)
	f.inward(t, "B2", day(2), 300, 3)
	f.inward(t, "B3", day(20), 400, 4) // future relative to asOf

	// Exhaust B2 completely.
	f.produce(t, day(3), "B2", 300, 3, "30s", 280, 0)
	// Partially use B1.
	f.produce(t, day(4), "B1", 200, 2, "30s", 190, 0)

	avail, err := f.stock.AvailableBatches(ctx, day(10))
	require.NoError(t, err)
	require.Len(t, avail, 1)

	b := avail[0]
	assert.Equal(t, "B1", b.BatchID)
	assert.Equal(t, 500.0, b.OriginalKg.Float64())
	assert.Equal(t, 5, b.OriginalBale)
	assert.Equal(t, 200.0, b.UsedKg.Float64())
	assert.Equal(t, 2, b.UsedBale)
	assert.Equal(t, 300.0, b.RemainingKg.Float64())
	assert.Equal(t, 3, b.RemainingBale)
}

func TestAvailableBatches_AsOfIgnoresLaterConsumption(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 500, 5)
	f.produce(t, day(10), "B1", 200, 2, "30s", 190, 0)

	avail, err := f.stock.AvailableBatches(ctx, day(5))
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, 0.0, avail[0].UsedKg.Float64())
	assert.Equal(t, 500.0, avail[0].RemainingKg.Float64())
}

func TestStreamTurnover(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 1000, 10)
	f.produce(t, day(5), "B1", 300, 3, "30s", 280, 0)
	f.produce(t, day(15), "B1", 200, 2, "30s", 190, 0)
	f.produce(t, day(25), "B1", 100, 1, "30s", 95, 0)

	// Cotton over [Jan 3, Jan 20]: opening 1000, expenses 500, closing 500.
	turnover, err := f.stock.StreamTurnover(ctx, ledger.StreamCotton, day(3), day(20))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, turnover.Opening.Float64())
	assert.Equal(t, 0.0, turnover.Receipts.Float64())
	assert.Equal(t, 500.0, turnover.Expenses.Float64())
	assert.Equal(t, 500.0, turnover.Closing.Float64())

	// Yarn 30s over the same period: nothing before Jan 3, two runs inside.
	turnover, err = f.stock.StreamTurnover(ctx, ledger.YarnStream("30s"), day(3), day(20))
	require.NoError(t, err)
	assert.Equal(t, 0.0, turnover.Opening.Float64())
	assert.Equal(t, 470.0, turnover.Receipts.Float64())
	assert.Equal(t, 0.0, turnover.Expenses.Float64())
	assert.Equal(t, 470.0, turnover.Closing.Float64())
}

func TestStreamTurnover_InvalidPeriod(t *testing.T) {
	f := newFixture()
	_, err := f.stock.StreamTurnover(context.Background(), ledger.StreamCotton, day(10), day(5))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
