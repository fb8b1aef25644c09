package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monarch/internal/core"
	"monarch/internal/log"
	"monarch/internal/persistence"
	"monarch/internal/storage"
)

var fixedNow = time.Date(2024, 1, 6, 12, 30, 0, 0, time.UTC)

func sequentialIDs() IDGenerator {
	n := 0
	return IDFunc(func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	})
}

type harness struct {
	store   *TransactionStore
	adapter *persistence.Adapter
	blobs   *storage.MemoryStore
}

func newHarness(t *testing.T, seed map[string]string, opts ...Option) harness {
	t.Helper()
	blobs := storage.Seed(seed)
	adapter := persistence.New(blobs, log.Discard())
	opts = append([]Option{
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(log.Discard()),
	}, opts...)
	return harness{
		store:   NewTransactionStore(context.Background(), adapter, opts...),
		adapter: adapter,
		blobs:   blobs,
	}
}

func draft(typ core.TransactionType, cents int64, category, date string) core.Draft {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Draft{Type: typ, Amount: core.Money{Cents: cents}, Category: category, Date: d}
}

// flakyPersister fails SaveTransactions while failSaves is set.
type flakyPersister struct {
	failSaves bool
	saved     [][]core.Transaction
	settings  []core.SettingsUpdate
}

func (f *flakyPersister) LoadTransactions(context.Context) []core.Transaction { return nil }

func (f *flakyPersister) SaveTransactions(_ context.Context, list []core.Transaction) error {
	if f.failSaves {
		return errors.New("quota exceeded")
	}
	f.saved = append(f.saved, append([]core.Transaction(nil), list...))
	return nil
}

func (f *flakyPersister) LoadSettings(context.Context) core.Settings { return core.DefaultSettings() }

func (f *flakyPersister) SaveSettings(_ context.Context, u core.SettingsUpdate) error {
	f.settings = append(f.settings, u)
	return nil
}

type recordingNotifier struct {
	ops []string
	err error
}

func (r *recordingNotifier) PublishChange(_ context.Context, op, id string, count int) error {
	r.ops = append(r.ops, fmt.Sprintf("%s:%s:%d", op, id, count))
	return r.err
}

func TestNewStoreLoadsDefaults(t *testing.T) {
	h := newHarness(t, nil)
	assert.Empty(t, h.store.Transactions())
	assert.Equal(t, core.INR, h.store.Currency())
	assert.Equal(t, core.Dark, h.store.Theme())
}

func TestAddScenarioTotals(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	salary, err := h.store.Add(ctx, draft(core.Income, 100000, "Salary", "2024-01-05"))
	require.NoError(t, err)
	food, err := h.store.Add(ctx, draft(core.Expense, 25000, "Food", "2024-01-06"))
	require.NoError(t, err)

	assert.Equal(t, "tx-1", salary.ID)
	assert.Equal(t, fixedNow, salary.CreatedAt)

	list := h.store.Transactions()
	require.Len(t, list, 2)
	assert.Equal(t, food.ID, list[0].ID, "newest added first")
	assert.Equal(t, salary.ID, list[1].ID)

	var income, expense int64
	for _, tx := range list {
		if tx.Type == core.Income {
			income += tx.Amount.Cents
		} else {
			expense += tx.Amount.Cents
		}
	}
	assert.Equal(t, int64(100000), income)
	assert.Equal(t, int64(25000), expense)

	assert.Equal(t, list, h.adapter.LoadTransactions(ctx), "write-through to storage")
}

func TestAddIsMonotonic(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	d := draft(core.Expense, 1234, "Travel", "2023-12-31")
	d.Notes = "train"

	for i := 1; i <= 5; i++ {
		before := h.store.Len()
		tx, err := h.store.Add(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, before+1, h.store.Len())
		assert.Equal(t, d, tx.Draft())
		got, ok := h.store.Get(tx.ID)
		require.True(t, ok)
		assert.Equal(t, tx, got)
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.store.Add(context.Background(), draft(core.Expense, 100, " ", "2024-01-01"))
	assert.ErrorIs(t, err, core.ErrEmptyCategory)
	assert.Zero(t, h.store.Len())
	_, err = h.blobs.Get(context.Background(), persistence.TransactionsKey)
	assert.ErrorIs(t, err, storage.ErrNotFound, "rejected add must not write")
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a, _ := h.store.Add(ctx, draft(core.Income, 100, "Gift", "2024-02-01"))
	b, _ := h.store.Add(ctx, draft(core.Expense, 50, "Food", "2024-02-02"))

	removed, err := h.store.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	after := h.store.Transactions()

	removed, err = h.store.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, after, h.store.Transactions())
	assert.Equal(t, []core.Transaction{b}, h.adapter.LoadTransactions(ctx))
}

func TestClearAllPersistsEmptyList(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{persistence.SettingsKey: `{"currency":"USD"}`})

	for i := 0; i < 3; i++ {
		_, err := h.store.Add(ctx, draft(core.Expense, int64(100*i), "Food", "2024-03-01"))
		require.NoError(t, err)
	}
	require.NoError(t, h.store.ClearAll(ctx))

	assert.Empty(t, h.store.Transactions())
	raw, err := h.blobs.Get(ctx, persistence.TransactionsKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
	assert.Empty(t, h.adapter.LoadTransactions(ctx))
	assert.Equal(t, core.USD, h.store.Currency(), "clearing keeps settings")
}

func TestBackupImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newHarness(t, nil)
	for i, c := range []string{"Salary", "Food", "Travel", "Health"} {
		typ := core.Expense
		if c == "Salary" {
			typ = core.Income
		}
		d := draft(typ, int64(1000*i+7), c, fmt.Sprintf("2024-04-%02d", i+1))
		d.Notes = "note " + c
		_, err := src.store.Add(ctx, d)
		require.NoError(t, err)
	}
	_, err := src.store.Delete(ctx, "tx-2")
	require.NoError(t, err)
	want := src.store.Transactions()

	backup, err := persistence.EncodeTransactions(want)
	require.NoError(t, err)

	dst := newHarness(t, nil)
	_, _ = dst.store.Add(ctx, draft(core.Income, 1, "Other", "2020-01-01"))
	n, err := dst.store.Import(ctx, bytes.NewReader(backup))
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, dst.store.Transactions())
	assert.Equal(t, want, dst.adapter.LoadTransactions(ctx))
}

func TestImportRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":      `{{`,
		"not an array":  `{"id":"a"}`,
		"missing id":    `[{"type":"income","amount":1,"category":"Gift","date":"2024-01-01"}]`,
		"bad type":      `[{"id":"a","type":"transfer","amount":1,"category":"Gift","date":"2024-01-01"}]`,
		"negative":      `[{"id":"a","type":"income","amount":-1,"category":"Gift","date":"2024-01-01"}]`,
		"no category":   `[{"id":"a","type":"income","amount":1,"category":"","date":"2024-01-01"}]`,
		"bad date":      `[{"id":"a","type":"income","amount":1,"category":"Gift","date":"soon"}]`,
		"huge negative": `[{"id":"a","type":"income","amount":-92233720368547758.09,"category":"Gift","date":"2024-01-01"}]`,
		"too large":     `[{"id":"a","type":"income","amount":10000000000000.01,"category":"Gift","date":"2024-01-01"}]`,
		"duplicate ids": `[{"id":"a","type":"income","amount":1,"category":"Gift","date":"2024-01-01"},{"id":"a","type":"income","amount":2,"category":"Gift","date":"2024-01-02"}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, nil)
			existing, err := h.store.Add(ctx, draft(core.Income, 500, "Salary", "2024-01-01"))
			require.NoError(t, err)

			_, err = h.store.Import(ctx, strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidImport)
			assert.Equal(t, []core.Transaction{existing}, h.store.Transactions(), "state unchanged")
		})
	}
}

func TestAddRejectsAmountAboveLimit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	_, err := h.store.Add(ctx, draft(core.Income, core.MaxCents, "Salary", "2024-01-01"))
	require.NoError(t, err)
	_, err = h.store.Add(ctx, draft(core.Income, core.MaxCents+1, "Salary", "2024-01-02"))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, 1, h.store.Len())
}

func TestUnreadableStoredRecordDoesNotLoseOthers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{persistence.TransactionsKey: `[
		{"id":"a","type":"income","amount":10,"category":"Gift","date":"2024-01-05","createdAt":"2024-01-05T09:00:00Z"},
		{"id":"b","type":"expense","amount":5,"category":"Food","date":"01/06/2024","createdAt":"2024-01-06T09:00:00Z"}
	]`})
	require.Equal(t, 1, h.store.Len())

	_, err := h.store.Add(ctx, draft(core.Expense, 300, "Food", "2024-01-06"))
	require.NoError(t, err)

	stored := h.adapter.LoadTransactions(ctx)
	require.Len(t, stored, 2)
	assert.Equal(t, "tx-1", stored[0].ID)
	assert.Equal(t, "a", stored[1].ID)
}

func TestImportAllIsLenient(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	odd := []core.Transaction{{ID: "", Type: "weird", Category: ""}}
	require.NoError(t, h.store.ImportAll(ctx, odd))
	assert.Equal(t, odd, h.store.Transactions())
}

func TestSettingsMerge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	require.NoError(t, h.store.SetCurrency(ctx, core.USD))
	theme, err := h.store.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Light, theme)

	raw, err := h.blobs.Get(ctx, persistence.SettingsKey)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, map[string]string{"currency": "USD", "theme": "light"}, doc)

	reloaded := NewTransactionStore(ctx, h.adapter, WithLogger(log.Discard()))
	assert.Equal(t, core.Settings{Currency: core.USD, Theme: core.Light}, reloaded.Settings())

	assert.ErrorIs(t, h.store.SetCurrency(ctx, "BTC"), core.ErrInvalidCurrency)
	assert.ErrorIs(t, h.store.SetTheme(ctx, "sepia"), core.ErrInvalidTheme)
	assert.Equal(t, core.USD, h.store.Currency())
}

func TestWriteFailureKeepsMemoryStateAndFlushes(t *testing.T) {
	ctx := context.Background()
	p := &flakyPersister{failSaves: true}
	s := NewTransactionStore(ctx, p, WithIDGenerator(sequentialIDs()), WithLogger(log.Discard()))

	tx, err := s.Add(ctx, draft(core.Expense, 999, "Food", "2024-05-05"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, []core.Transaction{tx}, s.Transactions(), "memory already reflects the change")
	assert.Empty(t, p.saved)

	p.failSaves = false
	require.NoError(t, s.Close(ctx))
	require.Len(t, p.saved, 1)
	assert.Equal(t, []core.Transaction{tx}, p.saved[0])

	// nothing pending, so a second close writes nothing
	require.NoError(t, s.Close(ctx))
	assert.Len(t, p.saved, 1)
}

func TestDeleteUnknownIDDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	p := &flakyPersister{}
	s := NewTransactionStore(ctx, p, WithLogger(log.Discard()))
	removed, err := s.Delete(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, p.saved)
}

func TestNotifierSeesMutations(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{err: errors.New("broker down")}
	h := newHarness(t, nil, WithNotifier(n))

	tx, err := h.store.Add(ctx, draft(core.Income, 100, "Gift", "2024-01-01"))
	require.NoError(t, err, "notification failures never fail a mutation")
	_, err = h.store.Delete(ctx, tx.ID)
	require.NoError(t, err)
	require.NoError(t, h.store.ClearAll(ctx))

	assert.Equal(t, []string{"add:tx-1:1", "delete:tx-1:1", "clear::0"}, n.ops)
}

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	a, b := g.NewID(), g.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
