package batches_test

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
	"millstock/internal/infrastructure/storage/memory"
	"millstock/internal/ledger"
)

type fixture struct {
	batches    *batches.Service
	production *production.Service
	ledger     *ledger.Service
}

func newFixture() *fixture {
	ledgerSvc := ledger.NewService(memory.NewLedgerRepository())
	txm := memory.NewTxManager()
	act := activity.NewService(memory.NewActivityStore())
	batchSvc := batches.NewService(memory.NewBatchRepository(), ledgerSvc, txm, act)
	prodSvc := production.NewService(
		memory.NewProductionRepository(), batchSvc, ledgerSvc,
		&numerator.MockGenerator{}, txm, act,
	)
	return &fixture{batches: batchSvc, production: prodSvc, ledger: ledgerSvc}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func kg(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func registerBatch(t *testing.T, f *fixture, batchID string, date time.Time, weight float64) {
	t.Helper()
	require.NoError(t, f.batches.Register(context.Background(), &batches.Batch{
		BatchID:      batchID,
		Date:         date,
		Supplier:     "S1",
		OriginalBale: 10,
		OriginalKg:   kg(weight),
	}))
}

func produce(t *testing.T, f *fixture, date time.Time, batchID string, consumedKg float64) *production.Production {
	t.Helper()
	doc := &production.Production{
		Date: date,
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: batchID, WeightKg: kg(consumedKg), Bales: 1},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(consumedKg * 0.95), Bags: 1},
		},
	}
	require.NoError(t, f.production.Create(context.Background(), doc))
	return doc
}

func TestRegister_CreditsCotton(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	registerBatch(t, f, "B1", day(1), 1700)

	balance, err := f.ledger.CurrentBalance(ctx, ledger.StreamCotton)
	require.NoError(t, err)
	assert.Equal(t, 1700.0, balance.Float64())

	movements, err := f.ledger.ListByReference(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, ledger.TypeInward, movements[0].Type)
	assert.Equal(t, "B1", movements[0].BatchID)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	f := newFixture()

	registerBatch(t, f, "B1", day(1), 100)

	err := f.batches.Register(context.Background(), &batches.Batch{
		BatchID:      "B1",
		Date:         day(2),
		Supplier:     "S2",
		OriginalBale: 5,
		OriginalKg:   kg(50),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture()

	err := f.batches.Register(context.Background(), &batches.Batch{
		BatchID: "B1", Date: day(1), Supplier: "S1",
		OriginalBale: 10, OriginalKg: kg(-5),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCapacity_ExhaustionPerBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	registerBatch(t, f, "B1", day(1), 100)
	// A second batch keeps total cotton plentiful, so the failure below
	// is about B1's capacity, not the overall balance.
	registerBatch(t, f, "B2", day(1), 500)
	produce(t, f, day(2), "B1", 60)

	// 41 exceeds B1's remaining 40.
	err := f.production.Create(ctx, &production.Production{
		Date: day(3),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: "B1", WeightKg: kg(41), Bales: 1},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(39), Bags: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientBatchStock))

	// Exactly the remaining 40 is fine.
	produce(t, f, day(3), "B1", 40)

	remaining, err := f.batches.RemainingCapacity(ctx, "B1", nil)
	require.NoError(t, err)
	assert.True(t, remaining.Abs() <= types.Epsilon, "batch should be exhausted, got %s", remaining)
}

func TestRemainingCapacity_AsOfDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	registerBatch(t, f, "B1", day(1), 100)
	produce(t, f, day(10), "B1", 30)

	asOf := day(5)
	remaining, err := f.batches.RemainingCapacity(ctx, "B1", &asOf)
	require.NoError(t, err)
	assert.Equal(t, 100.0, remaining.Float64())

	remaining, err = f.batches.RemainingCapacity(ctx, "B1", nil)
	require.NoError(t, err)
	assert.Equal(t, 70.0, remaining.Float64())
}

func TestDelete_RemovesInwardMovement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	registerBatch(t, f, "B1", day(1), 100)
	require.NoError(t, f.batches.Delete(ctx, "B1"))

	_, err := f.batches.GetByID(ctx, "B1")
	assert.True(t, apperror.IsNotFound(err))

	balance, err := f.ledger.CurrentBalance(ctx, ledger.StreamCotton)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestDelete_BlockedWhileInUse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	registerBatch(t, f, "B1", day(1), 100)
	produce(t, f, day(2), "B1", 10)

	err := f.batches.Delete(ctx, "B1")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBatchInUse))

	// Still there, balance untouched.
	_, err = f.batches.GetByID(ctx, "B1")
	require.NoError(t, err)
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture()
	err := f.batches.Delete(context.Background(), "missing")
	assert.True(t, apperror.IsNotFound(err))
}
