package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millstock/internal/core/types"
	"millstock/internal/infrastructure/storage/memory"
	"millstock/internal/ledger"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func kg(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func newTestService() (*ledger.Service, *memory.LedgerRepository) {
	repo := memory.NewLedgerRepository()
	return ledger.NewService(repo), repo
}

func mustAppend(t *testing.T, svc *ledger.Service, date time.Time, stream ledger.StreamKey, typ ledger.MovementType, qty types.Quantity) *ledger.Movement {
	t.Helper()
	m, err := svc.Append(context.Background(), &ledger.Movement{
		Date:      date,
		Stream:    stream,
		Type:      typ,
		Quantity:  qty,
		Reference: "test",
	})
	require.NoError(t, err)
	return m
}

// streamBalances returns cached balances in (date, id) order.
func streamBalances(t *testing.T, repo *memory.LedgerRepository, stream ledger.StreamKey) []float64 {
	t.Helper()
	movements, err := repo.ListByStream(context.Background(), stream)
	require.NoError(t, err)
	out := make([]float64, 0, len(movements))
	for _, m := range movements {
		out = append(out, m.Balance.Float64())
	}
	return out
}

func TestAppend_SequentialBalances(t *testing.T) {
	svc, repo := newTestService()

	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(10))
	mustAppend(t, svc, day(2), ledger.StreamCotton, ledger.TypeInward, kg(5))
	mustAppend(t, svc, day(3), ledger.StreamCotton, ledger.TypeProduction, kg(-3))

	assert.Equal(t, []float64{10, 15, 12}, streamBalances(t, repo, ledger.StreamCotton))
}

func TestAppend_BackdatedShiftsLaterBalances(t *testing.T) {
	svc, repo := newTestService()

	// Balances [10, 15, 12] at d1 < d2 < d3.
	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(10))
	mustAppend(t, svc, day(3), ledger.StreamCotton, ledger.TypeInward, kg(5))
	mustAppend(t, svc, day(5), ledger.StreamCotton, ledger.TypeProduction, kg(-3))

	// Insert -3 at d1 < d2' < d2.
	mustAppend(t, svc, day(2), ledger.StreamCotton, ledger.TypeCorrection, kg(-3))

	assert.Equal(t, []float64{10, 7, 12, 9}, streamBalances(t, repo, ledger.StreamCotton))

	// The last balance equals pre-insert total + new quantity.
	current, err := svc.CurrentBalance(context.Background(), ledger.StreamCotton)
	require.NoError(t, err)
	assert.Equal(t, 9.0, current.Float64())
}

func TestAppend_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Append(ctx, &ledger.Movement{
		Date: day(1), Stream: ledger.StreamCotton, Type: ledger.TypeInward,
	})
	assert.Error(t, err, "zero quantity must be rejected")

	_, err = svc.Append(ctx, &ledger.Movement{
		Date: day(1), Type: ledger.TypeInward, Quantity: kg(1),
	})
	assert.Error(t, err, "missing stream must be rejected")

	_, err = svc.Append(ctx, &ledger.Movement{
		Stream: ledger.StreamCotton, Type: ledger.TypeInward, Quantity: kg(1),
	})
	assert.Error(t, err, "missing date must be rejected")
}

func TestOrdering_SameDateTieBreaksByID(t *testing.T) {
	svc, repo := newTestService()

	// Two movements on the same date: insertion order decides.
	first := mustAppend(t, svc, day(1), ledger.StreamWaste, ledger.TypeInward, kg(4))
	second := mustAppend(t, svc, day(1), ledger.StreamWaste, ledger.TypeInward, kg(6))
	require.Less(t, first.ID, second.ID)

	assert.Equal(t, []float64{4, 10}, streamBalances(t, repo, ledger.StreamWaste))
}

func TestBalanceAsOf(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(100))
	mustAppend(t, svc, day(10), ledger.StreamCotton, ledger.TypeProduction, kg(-30))

	got, err := svc.BalanceAsOf(ctx, ledger.StreamCotton, day(5))
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Float64())

	got, err = svc.BalanceAsOf(ctx, ledger.StreamCotton, day(10))
	require.NoError(t, err)
	assert.Equal(t, 70.0, got.Float64())

	// Before all movements the prefix is empty.
	got, err = svc.BalanceAsOf(ctx, ledger.StreamCotton, day(1).Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestDelete_RepairsStream(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(10))
	mid := mustAppend(t, svc, day(2), ledger.StreamCotton, ledger.TypeInward, kg(5))
	mustAppend(t, svc, day(3), ledger.StreamCotton, ledger.TypeProduction, kg(-3))

	deleted, err := svc.Delete(ctx, mid.ID)
	require.NoError(t, err)
	assert.Equal(t, mid.ID, deleted.ID)

	assert.Equal(t, []float64{10, 7}, streamBalances(t, repo, ledger.StreamCotton))
}

func TestRecalculate_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(10))
	mid := mustAppend(t, svc, day(2), ledger.StreamCotton, ledger.TypeInward, kg(5))
	mustAppend(t, svc, day(3), ledger.StreamCotton, ledger.TypeProduction, kg(-3))

	_, err := svc.Delete(ctx, mid.ID)
	require.NoError(t, err)

	after1 := streamBalances(t, repo, ledger.StreamCotton)
	require.NoError(t, svc.Recalculate(ctx, ledger.StreamCotton))
	after2 := streamBalances(t, repo, ledger.StreamCotton)
	require.NoError(t, svc.Recalculate(ctx, ledger.StreamCotton))
	after3 := streamBalances(t, repo, ledger.StreamCotton)

	assert.Equal(t, after1, after2)
	assert.Equal(t, after2, after3)
}

func TestRecalculate_FullReplayInvariant(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Interleaved appends and deletes, including backdated rows.
	mustAppend(t, svc, day(5), ledger.StreamCotton, ledger.TypeInward, kg(50))
	m2 := mustAppend(t, svc, day(2), ledger.StreamCotton, ledger.TypeInward, kg(20))
	mustAppend(t, svc, day(8), ledger.StreamCotton, ledger.TypeProduction, kg(-15))
	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(5))
	_, err := svc.Delete(ctx, m2.ID)
	require.NoError(t, err)

	movements, err := repo.ListByStream(ctx, ledger.StreamCotton)
	require.NoError(t, err)

	var running types.Quantity
	for i, m := range movements {
		running += m.Quantity
		assert.Equal(t, running, m.Balance, "movement %d", i)
	}
}

func TestDeleteByReference_RemovesAllAndReportsStreams(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(100))
	_, err := svc.Append(ctx, &ledger.Movement{
		Date: day(2), Stream: ledger.StreamCotton, Type: ledger.TypeProduction,
		Quantity: kg(-40), Reference: "P-1",
	})
	require.NoError(t, err)
	_, err = svc.Append(ctx, &ledger.Movement{
		Date: day(2), Stream: ledger.YarnStream("30s"), Type: ledger.TypeProduction,
		Quantity: kg(38), Reference: "P-1",
	})
	require.NoError(t, err)

	streams, err := svc.DeleteByReference(ctx, "P-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []ledger.StreamKey{ledger.StreamCotton, ledger.YarnStream("30s")}, streams)

	cotton, err := svc.CurrentBalance(ctx, ledger.StreamCotton)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cotton.Float64())

	yarn, err := svc.CurrentBalance(ctx, ledger.YarnStream("30s"))
	require.NoError(t, err)
	assert.True(t, yarn.IsZero())
}

func TestHistory_FiltersAndOrders(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mustAppend(t, svc, day(1), ledger.StreamCotton, ledger.TypeInward, kg(10))
	mustAppend(t, svc, day(2), ledger.StreamCotton, ledger.TypeProduction, kg(-4))
	mustAppend(t, svc, day(3), ledger.StreamCotton, ledger.TypeInward, kg(6))

	all, err := svc.History(ctx, ledger.StreamCotton, ledger.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, day(3), all[0].Date, "newest first")

	inward := ledger.TypeInward
	filtered, err := svc.History(ctx, ledger.StreamCotton, ledger.HistoryFilter{Type: &inward})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	from := day(2)
	ranged, err := svc.History(ctx, ledger.StreamCotton, ledger.HistoryFilter{FromDate: &from, Limit: 1})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, day(3), ranged[0].Date)
}

func TestStreamKey_Helpers(t *testing.T) {
	assert.True(t, ledger.YarnStream("30s").IsYarn())
	assert.Equal(t, "30s", ledger.YarnStream("30s").YarnCount())
	assert.Equal(t, "Yarn", ledger.YarnStream("30s").Material())
	assert.False(t, ledger.StreamCotton.IsYarn())
	assert.Equal(t, "Cotton", ledger.StreamCotton.Material())
	assert.Equal(t, "", ledger.StreamCotton.YarnCount())
}
