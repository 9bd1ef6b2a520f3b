package waste_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millstock/internal/core/apperror"
	"millstock/internal/core/types"
	"millstock/internal/domain/activity"
	"millstock/internal/domain/waste"
	"millstock/internal/infrastructure/storage/memory"
	"millstock/internal/ledger"
)

type fixture struct {
	waste  *waste.Service
	ledger *ledger.Service
}

func newFixture() *fixture {
	ledgerSvc := ledger.NewService(memory.NewLedgerRepository())
	svc := waste.NewService(ledgerSvc, memory.NewTxManager(), activity.NewService(memory.NewActivityStore()))
	return &fixture{waste: svc, ledger: ledgerSvc}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func kg(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

// seedWaste credits the waste stream as process waste from production.
func (f *fixture) seedWaste(t *testing.T, date time.Time, weight float64) {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), &ledger.Movement{
		Date:      date,
		Stream:    ledger.StreamWaste,
		Type:      ledger.TypeProduction,
		Quantity:  kg(weight),
		Reference: "seed",
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, stream ledger.StreamKey) float64 {
	t.Helper()
	b, err := f.ledger.CurrentBalance(context.Background(), stream)
	require.NoError(t, err)
	return b.Float64()
}

func TestRecycleWaste_PostsPairedMovements(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.seedWaste(t, day(1), 50)

	pairID, err := f.waste.RecycleWaste(ctx, waste.Recycle{Date: day(2), WeightKg: kg(30)})
	require.NoError(t, err)

	assert.Equal(t, 20.0, f.balance(t, ledger.StreamWaste))
	assert.Equal(t, 30.0, f.balance(t, ledger.StreamCotton))

	pair, err := f.ledger.FindByPair(ctx, pairID)
	require.NoError(t, err)
	require.Len(t, pair, 2)

	byStream := map[ledger.StreamKey]ledger.Movement{}
	for _, m := range pair {
		byStream[m.Stream] = m
	}
	wasteSide := byStream[ledger.StreamWaste]
	cottonSide := byStream[ledger.StreamCotton]
	assert.Equal(t, ledger.TypeRecycle, wasteSide.Type)
	assert.Equal(t, ledger.TypeRecycledWaste, cottonSide.Type)
	assert.Equal(t, -30.0, wasteSide.Quantity.Float64())
	assert.Equal(t, 30.0, cottonSide.Quantity.Float64())
	assert.Equal(t, wasteSide.Reference, cottonSide.Reference)
	require.NotNil(t, wasteSide.PairID)
	require.NotNil(t, cottonSide.PairID)
	assert.Equal(t, *wasteSide.PairID, *cottonSide.PairID)
}

func TestRecycleWaste_InsufficientAtDate(t *testing.T) {
	f := newFixture()

	// Waste exists only from Jan 5 on; the recycle is dated Jan 2.
	f.seedWaste(t, day(5), 50)

	_, err := f.waste.RecycleWaste(context.Background(), waste.Recycle{Date: day(2), WeightKg: kg(10)})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStockAtDate))

	assert.Equal(t, 50.0, f.balance(t, ledger.StreamWaste))
	assert.Equal(t, 0.0, f.balance(t, ledger.StreamCotton))
}

func TestRecycleWaste_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.waste.RecycleWaste(ctx, waste.Recycle{Date: day(1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.waste.RecycleWaste(ctx, waste.Recycle{WeightKg: kg(5)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestExportWaste_DebitsWaste(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.seedWaste(t, day(1), 50)

	_, err := f.waste.ExportWaste(ctx, waste.Export{Date: day(2), WeightKg: kg(30), Buyer: "ReFiber Ltd"})
	require.NoError(t, err)

	assert.Equal(t, 20.0, f.balance(t, ledger.StreamWaste))
	// An export never touches cotton.
	assert.Equal(t, 0.0, f.balance(t, ledger.StreamCotton))
}

func TestExportWaste_RequiresBuyer(t *testing.T) {
	f := newFixture()
	f.seedWaste(t, day(1), 50)

	_, err := f.waste.ExportWaste(context.Background(), waste.Export{Date: day(2), WeightKg: kg(10)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestDeleteMovement_RemovesBothRecycleHalves(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.seedWaste(t, day(1), 50)
	pairID, err := f.waste.RecycleWaste(ctx, waste.Recycle{Date: day(2), WeightKg: kg(30)})
	require.NoError(t, err)

	pair, err := f.ledger.FindByPair(ctx, pairID)
	require.NoError(t, err)
	require.Len(t, pair, 2)

	// Deleting either half removes both.
	require.NoError(t, f.waste.DeleteMovement(ctx, pair[0].ID))

	remaining, err := f.ledger.FindByPair(ctx, pairID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.Equal(t, 50.0, f.balance(t, ledger.StreamWaste))
	assert.Equal(t, 0.0, f.balance(t, ledger.StreamCotton))
}

func TestDeleteMovement_Export(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.seedWaste(t, day(1), 50)
	exportID, err := f.waste.ExportWaste(ctx, waste.Export{Date: day(2), WeightKg: kg(30), Buyer: "ReFiber Ltd"})
	require.NoError(t, err)

	movements, err := f.ledger.ListByReference(ctx, "EX-"+exportID.String())
	require.NoError(t, err)
	require.Len(t, movements, 1)

	require.NoError(t, f.waste.DeleteMovement(ctx, movements[0].ID))
	assert.Equal(t, 50.0, f.balance(t, ledger.StreamWaste))
}

func TestDeleteMovement_RefusesDocumentMovements(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Process waste posted by a production run must be deleted through the run.
	f.seedWaste(t, day(1), 50)
	movements, err := f.ledger.ListByReference(ctx, "seed")
	require.NoError(t, err)
	require.Len(t, movements, 1)

	err = f.waste.DeleteMovement(ctx, movements[0].ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDerivedMovement))
}

func TestDeleteMovement_NotFound(t *testing.T) {
	f := newFixture()
	err := f.waste.DeleteMovement(context.Background(), 999)
	assert.True(t, apperror.IsNotFound(err))
}
