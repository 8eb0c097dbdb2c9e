// Package storagetest holds the behavioural tests every record store backend
// must pass.
package storagetest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momo/internal/core"
	"momo/internal/storage"
)

// Factory returns an empty store. Cleanup is registered on t by the factory.
type Factory func(t *testing.T) storage.RecordStore

var base = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func record(phone, typ, amount, agent, reference string, at time.Time) core.Record {
	return core.Record{
		Date:      at,
		Phone:     phone,
		Type:      typ,
		Amount:    decimal.RequireFromString(amount),
		Agent:     agent,
		Reference: reference,
		CreatedAt: at,
	}
}

func seed(t *testing.T, s storage.RecordStore, recs ...core.Record) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		id, err := s.Create(context.Background(), r)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

// Run exercises the RecordStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateThenList", func(t *testing.T) { testCreateThenList(t, newStore(t)) })
	t.Run("CreateRejectsInvalid", func(t *testing.T) { testCreateRejectsInvalid(t, newStore(t)) })
	t.Run("DeleteMissingIsNoop", func(t *testing.T) { testDeleteMissing(t, newStore(t)) })
	t.Run("DeleteByAgent", func(t *testing.T) { testDeleteByAgent(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("FilterConjunction", func(t *testing.T) { testFilterConjunction(t, newStore(t)) })
	t.Run("SearchIsCaseInsensitive", func(t *testing.T) { testSearch(t, newStore(t)) })
	t.Run("DateBoundsInclusive", func(t *testing.T) { testDateBounds(t, newStore(t)) })
	t.Run("DistinctAgents", func(t *testing.T) { testDistinctAgents(t, newStore(t)) })
	t.Run("SummaryMatchesList", func(t *testing.T) { testSummaryMatchesList(t, newStore(t)) })
	t.Run("WorkedExample", func(t *testing.T) { testWorkedExample(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func testCreateThenList(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	ids := seed(t, s, record("0771234567", core.Deposit, "1234.56", "agent1", "", base))

	got, err := s.List(ctx, core.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, ids[0], r.ID)
	assert.Equal(t, "agent1", r.Agent)
	assert.Equal(t, "0771234567", r.Phone)
	assert.Empty(t, r.Reference)
	assert.True(t, r.Amount.Equal(decimal.RequireFromString("1234.56")), "amount = %s", r.Amount)
	assert.True(t, r.Date.Equal(base), "date = %s", r.Date)

	fetched, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, r.Phone, fetched.Phone)
}

func testCreateRejectsInvalid(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	seed(t, s, record("0771234567", core.Deposit, "10", "agent1", "", base))

	invalid := []core.Record{
		record("0771234567", core.Deposit, "0", "agent1", "", base),
		record("0771234567", core.Deposit, "-5", "agent1", "", base),
		record("", core.Deposit, "10", "agent1", "", base),
		record("0771234567", core.Deposit, "10", "", "", base),
	}
	for _, r := range invalid {
		_, err := s.Create(ctx, r)
		require.Error(t, err)
		assert.True(t, core.IsValidation(err), "want validation error, got %v", err)
	}

	got, err := s.List(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testDeleteMissing(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	ids := seed(t, s, record("0771234567", core.Deposit, "10", "agent1", "", base))

	deleted, err := s.Delete(ctx, ids[0]+100)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := s.List(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	deleted, err = s.Delete(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = s.List(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testDeleteByAgent(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	ids := seed(t, s, record("0771234567", core.Deposit, "10", "agent1", "", base))

	deleted, err := s.DeleteByAgent(ctx, ids[0], "agent2")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteByAgent(ctx, ids[0], "agent1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func testGetMissing(t *testing.T, s storage.RecordStore) {
	_, err := s.Get(context.Background(), 42)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
}

func testListOrder(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	ids := seed(t, s,
		record("0771000001", core.Deposit, "1", "agent1", "", base),
		record("0771000002", core.Deposit, "2", "agent1", "", base.Add(2*time.Hour)),
		record("0771000003", core.Deposit, "3", "agent1", "", base.Add(-24*time.Hour)),
		record("0771000004", core.Deposit, "4", "agent1", "", base),
	)

	got, err := s.List(ctx, core.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	var order []int64
	for _, r := range got {
		order = append(order, r.ID)
	}
	// Same timestamp falls back to the most recently inserted first.
	assert.Equal(t, []int64{ids[1], ids[3], ids[0], ids[2]}, order)
}

func testFilterConjunction(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	seed(t, s,
		record("0771234567", core.Deposit, "50", "agent1", "INV-1", base),
		record("0771234567", core.Withdrawal, "20", "agent2", "", base.Add(time.Hour)),
		record("0779999999", core.Deposit, "5", "agent1", "cash", base.Add(48*time.Hour)),
		record("0775550000", core.Withdrawal, "7.25", "agent2", "INV-2", base.Add(-72*time.Hour)),
	)

	all, err := s.List(ctx, core.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)

	filters := []core.Filter{
		{Agent: "agent1"},
		{Search: "inv"},
		{Search: "077123", Agent: "agent2"},
		{FromDate: "2025-03-10"},
		{ToDate: "2025-03-10", Agent: "agent2"},
		{FromDate: "2025-03-10", ToDate: "2025-03-10", Search: "0771"},
		{Agent: "nobody"},
	}
	for _, f := range filters {
		got, err := s.List(ctx, f)
		require.NoError(t, err)

		want := 0
		for _, r := range all {
			if f.Matches(r, time.UTC) {
				want++
			}
		}
		assert.Len(t, got, want, "filter %+v", f)
		for _, r := range got {
			assert.True(t, f.Matches(r, time.UTC), "record %d does not satisfy %+v", r.ID, f)
		}
		assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Date.After(got[j].Date) }))
	}
}

func testSearch(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	seed(t, s,
		record("0771234567", core.Deposit, "50", "agent1", "Invoice-77", base),
		record("0779999999", core.Deposit, "5", "Teller", "", base),
	)

	got, err := s.List(ctx, core.Filter{Search: "INVOICE"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Invoice-77", got[0].Reference)

	got, err = s.List(ctx, core.Filter{Search: "tell"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Teller", got[0].Agent)

	got, err = s.List(ctx, core.Filter{Search: "0779"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func testDateBounds(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	seed(t, s,
		record("0771000001", core.Deposit, "1", "agent1", "", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		record("0771000002", core.Deposit, "1", "agent1", "", time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)),
		record("0771000003", core.Deposit, "1", "agent1", "", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
	)

	got, err := s.List(ctx, core.Filter{FromDate: "2025-03-01", ToDate: "2025-03-31"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.List(ctx, core.Filter{FromDate: "2025-03-31", ToDate: "2025-03-31"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0771000002", got[0].Phone)
}

func testDistinctAgents(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	agents, err := s.DistinctAgents(ctx)
	require.NoError(t, err)
	assert.Empty(t, agents)

	seed(t, s,
		record("0771000001", core.Deposit, "1", "zed", "", base),
		record("0771000002", core.Deposit, "1", "agent2", "", base),
		record("0771000003", core.Deposit, "1", "agent1", "", base),
		record("0771000004", core.Deposit, "1", "agent2", "", base),
	)

	agents, err = s.DistinctAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent1", "agent2", "zed"}, agents)
}

func testSummaryMatchesList(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	seed(t, s,
		record("0771000001", core.Deposit, "0.10", "agent1", "", base),
		record("0771000002", core.Deposit, "0.20", "agent1", "", base),
		record("0771000003", core.Withdrawal, "99999999.99", "agent1", "", base),
		record("0771000004", core.Deposit, "12.35", "agent2", "", base),
		record("0771000005", "airtime", "3", "agent2", "", base),
	)

	for _, f := range []core.Filter{{}, {Agent: "agent1"}, {Search: "0771000004"}, {Agent: "nobody"}} {
		listed, err := s.List(ctx, f)
		require.NoError(t, err)
		want := core.Summarize(listed)

		got, err := s.Summarize(ctx, f)
		require.NoError(t, err)
		require.Equal(t, want.Types(), got.Types(), "filter %+v", f)
		for _, typ := range want.Types() {
			assert.Equal(t, want[typ].Count, got[typ].Count)
			assert.True(t, want[typ].Total.Equal(got[typ].Total), "%s: want %s got %s", typ, want[typ].Total, got[typ].Total)
		}
	}

	got, err := s.Summarize(ctx, core.Filter{Agent: "agent1"})
	require.NoError(t, err)
	assert.Equal(t, "0.30", core.FormatAmount(got[core.Deposit].Total))
}

func testWorkedExample(t *testing.T, s storage.RecordStore) {
	ctx := context.Background()
	ids := seed(t, s,
		record("0771234567", core.Deposit, "50.00", "agent1", "", base),
		record("0779999999", core.Withdrawal, "20.00", "agent2", "", base.Add(time.Minute)),
	)

	got, err := s.List(ctx, core.Filter{Agent: "agent1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ids[0], got[0].ID)

	summary, err := s.Summarize(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary[core.Deposit].Count)
	assert.Equal(t, "50.00", core.FormatAmount(summary[core.Deposit].Total))
	assert.Equal(t, int64(1), summary[core.Withdrawal].Count)
	assert.Equal(t, "20.00", core.FormatAmount(summary[core.Withdrawal].Total))
}
