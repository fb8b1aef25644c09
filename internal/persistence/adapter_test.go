package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monarch/internal/core"
	"monarch/internal/log"
	"monarch/internal/storage"
)

type failingStore struct {
	storage.BlobStore
	getErr error
	putErr error
}

func (f failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.BlobStore.Get(ctx, key)
}

func (f failingStore) Put(ctx context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.BlobStore.Put(ctx, key, value)
}

func newAdapter(seed map[string]string) (*Adapter, *storage.MemoryStore) {
	blobs := storage.Seed(seed)
	return New(blobs, log.Discard()), blobs
}

func TestLoadTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		a, _ := newAdapter(nil)
		list := a.LoadTransactions(ctx)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("malformed json", func(t *testing.T) {
		a, _ := newAdapter(map[string]string{TransactionsKey: `[{"id":`})
		assert.Empty(t, a.LoadTransactions(ctx))
	})

	t.Run("not an array", func(t *testing.T) {
		a, _ := newAdapter(map[string]string{TransactionsKey: `{"id":"x"}`})
		assert.Empty(t, a.LoadTransactions(ctx))
	})

	t.Run("read error", func(t *testing.T) {
		a := New(failingStore{BlobStore: storage.NewMemoryStore(), getErr: errors.New("io")}, log.Discard())
		assert.Empty(t, a.LoadTransactions(ctx))
	})

	t.Run("valid document", func(t *testing.T) {
		a, _ := newAdapter(map[string]string{TransactionsKey: `[
			{"id":"a1","type":"income","amount":1000,"category":"Salary","date":"2024-01-05","createdAt":"2024-01-05T09:00:00.000Z"},
			{"id":"b2","type":"expense","amount":12.5,"category":"Food","date":"2024-01-06T00:00:00.000Z","notes":"lunch","createdAt":"2024-01-06T12:00:00Z"}
		]`})
		list := a.LoadTransactions(ctx)
		require.Len(t, list, 2)
		assert.Equal(t, "a1", list[0].ID)
		assert.Equal(t, core.Income, list[0].Type)
		assert.Equal(t, int64(100000), list[0].Amount.Cents)
		assert.Equal(t, "2024-01-06", list[1].Date.String())
		assert.Equal(t, int64(1250), list[1].Amount.Cents)
		assert.Equal(t, "lunch", list[1].Notes)
	})

	t.Run("unreadable record is skipped", func(t *testing.T) {
		a, _ := newAdapter(map[string]string{TransactionsKey: `[
			{"id":"a","type":"income","amount":10,"category":"Gift","date":"2024-01-05","createdAt":"2024-01-05T09:00:00Z"},
			{"id":"b","type":"expense","amount":5,"category":"Food","date":"01/06/2024","createdAt":"2024-01-06T09:00:00Z"},
			{"id":"c","type":"expense","amount":"lots","category":"Food","date":"2024-01-07","createdAt":"2024-01-07T09:00:00Z"},
			{"id":"d","type":"expense","amount":7,"category":"Food","date":"2024-01-08","createdAt":"2024-01-08T09:00:00Z"}
		]`})
		list := a.LoadTransactions(ctx)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].ID)
		assert.Equal(t, "d", list[1].ID)
	})
}

func TestSaveTransactions(t *testing.T) {
	ctx := context.Background()
	a, blobs := newAdapter(nil)

	require.NoError(t, a.SaveTransactions(ctx, nil))
	raw, err := blobs.Get(ctx, TransactionsKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	tx := core.Transaction{
		ID:        "a1",
		Type:      core.Expense,
		Amount:    core.Money{Cents: 25000},
		Category:  "Food",
		Date:      core.NewDate(2024, 1, 6),
		CreatedAt: time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, a.SaveTransactions(ctx, []core.Transaction{tx}))
	raw, _ = blobs.Get(ctx, TransactionsKey)

	var doc []map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "2024-01-06", doc[0]["date"])
	assert.Equal(t, float64(250), doc[0]["amount"])
	assert.Equal(t, "expense", doc[0]["type"])
	assert.NotContains(t, doc[0], "notes")

	assert.Equal(t, []core.Transaction{tx}, a.LoadTransactions(ctx))
}

func TestSaveTransactionsPropagatesWriteError(t *testing.T) {
	a := New(failingStore{BlobStore: storage.NewMemoryStore(), putErr: errors.New("quota exceeded")}, log.Discard())
	err := a.SaveTransactions(context.Background(), []core.Transaction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLoadSettings(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		doc  *string
		want core.Settings
	}{
		{"missing", nil, core.Settings{Currency: core.INR, Theme: core.Dark}},
		{"malformed", strPtr(`{"currency":`), core.Settings{Currency: core.INR, Theme: core.Dark}},
		{"partial", strPtr(`{"currency":"USD"}`), core.Settings{Currency: core.USD, Theme: core.Dark}},
		{"invalid values", strPtr(`{"currency":"BTC","theme":7}`), core.Settings{Currency: core.INR, Theme: core.Dark}},
		{"complete", strPtr(`{"currency":"JPY","theme":"light","extra":true}`), core.Settings{Currency: core.JPY, Theme: core.Light}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seed := map[string]string{}
			if tc.doc != nil {
				seed[SettingsKey] = *tc.doc
			}
			a, _ := newAdapter(seed)
			assert.Equal(t, tc.want, a.LoadSettings(ctx))
		})
	}
}

func TestSaveSettingsMerges(t *testing.T) {
	ctx := context.Background()
	a, blobs := newAdapter(map[string]string{SettingsKey: `{"theme":"light","fontSize":14}`})

	usd := core.USD
	require.NoError(t, a.SaveSettings(ctx, core.SettingsUpdate{Currency: &usd}))

	raw, _ := blobs.Get(ctx, SettingsKey)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "USD", doc["currency"])
	assert.Equal(t, "light", doc["theme"])
	assert.Equal(t, float64(14), doc["fontSize"])

	dark := core.Dark
	require.NoError(t, a.SaveSettings(ctx, core.SettingsUpdate{Theme: &dark}))
	assert.Equal(t, core.Settings{Currency: core.USD, Theme: core.Dark}, a.LoadSettings(ctx))
}

func TestSaveSettingsReplacesMalformed(t *testing.T) {
	ctx := context.Background()
	a, blobs := newAdapter(map[string]string{SettingsKey: `not json`})

	light := core.Light
	require.NoError(t, a.SaveSettings(ctx, core.SettingsUpdate{Theme: &light}))
	raw, _ := blobs.Get(ctx, SettingsKey)
	assert.JSONEq(t, `{"theme":"light"}`, string(raw))
}

func TestSaveSettingsRejectsInvalid(t *testing.T) {
	a, blobs := newAdapter(nil)
	bad := core.Currency("BTC")
	err := a.SaveSettings(context.Background(), core.SettingsUpdate{Currency: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidCurrency)
	assert.Empty(t, blobs.Keys())
}

func TestDecodeTransactions(t *testing.T) {
	list, err := DecodeTransactions([]byte(" null "))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = DecodeTransactions([]byte(`"x"`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeTransactions([]byte(`[{"amount":"abc"}]`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func strPtr(s string) *string { return &s }
