// Package persistence maps the transaction list and the settings to the two
// JSON documents kept in a blob store.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"monarch/internal/core"
	"monarch/internal/log"
	"monarch/internal/storage"
)

const (
	TransactionsKey = "monarch_transactions"
	SettingsKey     = "monarch_settings"
)

// ErrMalformed reports a stored document that is not valid JSON of the expected shape.
var ErrMalformed = errors.New("malformed document")

// Adapter reads and writes the persisted documents. Reads never fail: a
// missing or unreadable document yields defaults and a warning in the log.
// Writes return their error to the caller.
type Adapter struct {
	blobs  storage.BlobStore
	logger *log.Logger
}

func New(blobs storage.BlobStore, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{
		blobs:  blobs,
		logger: logger.WithComponent(log.ComponentPersistence),
	}
}

// LoadTransactions returns the stored list, or an empty list when the document
// is absent or is not a JSON array. Records that fail to decode are skipped
// with a warning; the rest of the list is kept.
func (a *Adapter) LoadTransactions(ctx context.Context) []core.Transaction {
	data, err := a.blobs.Get(ctx, TransactionsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []core.Transaction{}
	}
	if err != nil {
		a.logger.WarnContext(ctx, "Failed to read transactions, starting empty",
			log.NewFields().WithKey(TransactionsKey).WithError(err).WithErrorType(log.ErrorTypeStorage).ToSlice()...)
		return []core.Transaction{}
	}

	list, err := DecodeTransactions(data)
	if err != nil {
		list, err = a.salvageTransactions(ctx, data)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "Failed to parse transactions, starting empty",
			log.NewFields().WithKey(TransactionsKey).WithError(err).WithErrorType(log.ErrorTypeParse).ToSlice()...)
		return []core.Transaction{}
	}

	a.logger.DebugContext(ctx, "Transactions loaded", log.FieldCount, len(list))
	return list
}

// salvageTransactions decodes the array one record at a time and drops the
// records that do not decode.
func (a *Adapter) salvageTransactions(ctx context.Context, data []byte) ([]core.Transaction, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	list := make([]core.Transaction, 0, len(raws))
	for i, raw := range raws {
		var tx core.Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			a.logger.WarnContext(ctx, "Skipping unreadable transaction",
				append(log.NewFields().WithKey(TransactionsKey).WithError(err).WithErrorType(log.ErrorTypeParse).ToSlice(),
					log.FieldIndex, i)...)
			continue
		}
		list = append(list, tx)
	}
	return list, nil
}

// SaveTransactions overwrites the stored list. An empty list is written as [].
func (a *Adapter) SaveTransactions(ctx context.Context, list []core.Transaction) error {
	data, err := EncodeTransactions(list)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := a.blobs.Put(ctx, TransactionsKey, data); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// LoadSettings returns the stored settings. Each field falls back to its
// default independently when missing or invalid.
func (a *Adapter) LoadSettings(ctx context.Context) core.Settings {
	settings := core.DefaultSettings()

	doc, err := a.readSettingsDoc(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.WarnContext(ctx, "Failed to load settings, using defaults",
				log.NewFields().WithKey(SettingsKey).WithError(err).WithErrorType(log.ErrorTypeParse).ToSlice()...)
		}
		return settings
	}

	var currency core.Currency
	if raw, ok := doc["currency"]; ok && json.Unmarshal(raw, &currency) == nil && currency.IsValid() {
		settings.Currency = currency
	}
	var theme core.Theme
	if raw, ok := doc["theme"]; ok && json.Unmarshal(raw, &theme) == nil && theme.IsValid() {
		settings.Theme = theme
	}
	return settings
}

// SaveSettings merges u into the stored settings document. Fields that u does
// not set, including ones this program does not know about, are kept as they are.
func (a *Adapter) SaveSettings(ctx context.Context, u core.SettingsUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	doc, err := a.readSettingsDoc(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		doc = map[string]json.RawMessage{}
	case errors.Is(err, ErrMalformed):
		a.logger.WarnContext(ctx, "Replacing malformed settings document",
			log.NewFields().WithKey(SettingsKey).WithError(err).ToSlice()...)
		doc = map[string]json.RawMessage{}
	case err != nil:
		return fmt.Errorf("read settings: %w", err)
	}

	if u.Currency != nil {
		doc["currency"], _ = json.Marshal(*u.Currency)
	}
	if u.Theme != nil {
		doc["theme"], _ = json.Marshal(*u.Theme)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := a.blobs.Put(ctx, SettingsKey, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (a *Adapter) readSettingsDoc(ctx context.Context) (map[string]json.RawMessage, error) {
	data, err := a.blobs.Get(ctx, SettingsKey)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		// the literal null
		doc = map[string]json.RawMessage{}
	}
	return doc, nil
}

// DecodeTransactions parses a JSON array of transactions. null decodes to an
// empty list; anything other than an array is an error.
func DecodeTransactions(data []byte) ([]core.Transaction, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return []core.Transaction{}, nil
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformed)
	}
	var list []core.Transaction
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if list == nil {
		list = []core.Transaction{}
	}
	return list, nil
}

// EncodeTransactions is the inverse of DecodeTransactions.
func EncodeTransactions(list []core.Transaction) ([]byte, error) {
	if list == nil {
		list = []core.Transaction{}
	}
	return json.Marshal(list)
}
