package production_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
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

func (f *fixture) inward(t *testing.T, batchID string, date time.Time, weight float64) {
	t.Helper()
	require.NoError(t, f.batches.Register(context.Background(), &batches.Batch{
		BatchID:      batchID,
		Date:         date,
		Supplier:     "S1",
		OriginalBale: 10,
		OriginalKg:   kg(weight),
	}))
}

func (f *fixture) balance(t *testing.T, stream ledger.StreamKey) float64 {
	t.Helper()
	b, err := f.ledger.CurrentBalance(context.Background(), stream)
	require.NoError(t, err)
	return b.Float64()
}

func TestCreate_EndToEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 1700)
	assert.Equal(t, 1700.0, f.balance(t, ledger.StreamCotton))

	doc := &production.Production{
		Date:    day(5),
		WasteKg: kg(20),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: "B1", WeightKg: kg(500), Bales: 3},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(480), Bags: 10},
		},
	}
	require.NoError(t, f.production.Create(ctx, doc))
	require.NotEmpty(t, doc.Number)

	assert.Equal(t, 1200.0, f.balance(t, ledger.StreamCotton))
	assert.Equal(t, 480.0, f.balance(t, ledger.YarnStream("30s")))
	assert.Equal(t, 20.0, f.balance(t, ledger.StreamWaste))

	require.NoError(t, f.production.Delete(ctx, doc.ID))

	assert.Equal(t, 1700.0, f.balance(t, ledger.StreamCotton))
	assert.Equal(t, 0.0, f.balance(t, ledger.YarnStream("30s")))
	assert.Equal(t, 0.0, f.balance(t, ledger.StreamWaste))

	_, err := f.production.GetByID(ctx, doc.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_InsufficientCurrentCotton(t *testing.T) {
	f := newFixture()

	f.inward(t, "B1", day(1), 100)

	err := f.production.Create(context.Background(), &production.Production{
		Date: day(2),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: "B1", WeightKg: kg(150), Bales: 1},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(140), Bags: 3},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	// Nothing was posted.
	assert.Equal(t, 100.0, f.balance(t, ledger.StreamCotton))
	assert.Equal(t, 0.0, f.balance(t, ledger.YarnStream("30s")))
}

func TestCreate_BackdatedRunUsesCurrentBalance(t *testing.T) {
	f := newFixture()

	// Cotton arrives on day 10; the run is dated day 2. Consumption checks
	// the current balance, so the backdated run still posts.
	f.inward(t, "B1", day(10), 100)

	err := f.production.Create(context.Background(), &production.Production{
		Date: day(2),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: "B1", WeightKg: kg(50), Bales: 1},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(47), Bags: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, f.balance(t, ledger.StreamCotton))
}

func TestCreate_MultiBatchMovements(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 300)
	f.inward(t, "B2", day(2), 400)

	doc := &production.Production{
		Date:    day(3),
		WasteKg: kg(5),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: "B1", WeightKg: kg(200), Bales: 2},
			{LineNo: 2, BatchID: "B2", WeightKg: kg(100), Bales: 1},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(180), Bags: 4},
			{LineNo: 2, Count: "40s", WeightKg: kg(110), Bags: 2},
		},
	}
	require.NoError(t, f.production.Create(ctx, doc))

	// One cotton movement per consumed line, tagged with its batch.
	movements, err := f.ledger.ListByReference(ctx, doc.Reference())
	require.NoError(t, err)
	assert.Len(t, movements, 5)

	perBatch := map[string]float64{}
	for _, m := range movements {
		if m.Stream == ledger.StreamCotton {
			perBatch[m.BatchID] = m.Quantity.Float64()
		}
	}
	assert.Equal(t, map[string]float64{"B1": -200, "B2": -100}, perBatch)

	assert.Equal(t, 400.0, f.balance(t, ledger.StreamCotton))
	assert.Equal(t, 180.0, f.balance(t, ledger.YarnStream("30s")))
	assert.Equal(t, 110.0, f.balance(t, ledger.YarnStream("40s")))
	assert.Equal(t, 5.0, f.balance(t, ledger.StreamWaste))
}

func TestCreate_ZeroWasteSkipsWasteMovement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.inward(t, "B1", day(1), 100)

	doc := &production.Production{
		Date: day(2),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: "B1", WeightKg: kg(50), Bales: 1},
		},
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(50), Bags: 1},
		},
	}
	require.NoError(t, f.production.Create(ctx, doc))

	movements, err := f.ledger.ListByReference(ctx, doc.Reference())
	require.NoError(t, err)
	assert.Len(t, movements, 2)
	for _, m := range movements {
		assert.NotEqual(t, ledger.StreamWaste, m.Stream)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.production.Create(ctx, &production.Production{
		Date: day(1),
		Produced: []production.ProducedLine{
			{LineNo: 1, Count: "30s", WeightKg: kg(10), Bags: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "missing consumed lines")

	err = f.production.Create(ctx, &production.Production{
		Date: day(1),
		Consumed: []production.ConsumedLine{
			{LineNo: 1, BatchID: "B1", WeightKg: kg(10), Bales: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "missing produced lines")
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture()

	err := f.production.Delete(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
