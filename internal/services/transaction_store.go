package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"monarch/internal/core"
	"monarch/internal/log"
	"monarch/internal/persistence"
)

// ErrInvalidImport is returned when an import document cannot be accepted.
// The store is left untouched in that case.
var ErrInvalidImport = errors.New("invalid import file")

// Persister is the storage the store writes through to.
type Persister interface {
	LoadTransactions(ctx context.Context) []core.Transaction
	SaveTransactions(ctx context.Context, list []core.Transaction) error
	LoadSettings(ctx context.Context) core.Settings
	SaveSettings(ctx context.Context, u core.SettingsUpdate) error
}

// IDGenerator produces transaction IDs.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// ChangeNotifier is told about every mutation that reached storage.
type ChangeNotifier interface {
	PublishChange(ctx context.Context, operation, transactionID string, count int) error
}

// Option configures a TransactionStore.
type Option func(*TransactionStore)

func WithIDGenerator(g IDGenerator) Option {
	return func(s *TransactionStore) { s.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *TransactionStore) { s.now = now }
}

func WithNotifier(n ChangeNotifier) Option {
	return func(s *TransactionStore) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *TransactionStore) { s.logger = l }
}

// TransactionStore owns the transaction list and the settings. Every mutation
// changes the in-memory state first and then writes the whole document
// through to the Persister. When that write fails the error is returned and
// the in-memory change stays; the next successful write or Close catches the
// persisted copy up.
type TransactionStore struct {
	mu        sync.Mutex
	persister Persister
	ids       IDGenerator
	now       func() time.Time
	notifier  ChangeNotifier
	logger    *log.Logger

	transactions []core.Transaction
	settings     core.Settings
	dirty        bool
}

// NewTransactionStore loads the persisted state. Loading never fails; bad
// documents have already been replaced by defaults in the Persister.
func NewTransactionStore(ctx context.Context, p Persister, opts ...Option) *TransactionStore {
	s := &TransactionStore{
		persister: p,
		ids:       UUIDGenerator{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)

	s.transactions = p.LoadTransactions(ctx)
	if s.transactions == nil {
		s.transactions = []core.Transaction{}
	}
	s.settings = p.LoadSettings(ctx)

	s.logger.DebugContext(ctx, "Store loaded",
		log.FieldCount, len(s.transactions),
		log.FieldCurrency, s.settings.Currency,
		log.FieldTheme, s.settings.Theme)
	return s
}

// Add records a new transaction at the front of the list.
func (s *TransactionStore) Add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		ID:        s.ids.NewID(),
		Type:      d.Type,
		Amount:    d.Amount,
		Category:  d.Category,
		Date:      d.Date,
		Notes:     d.Notes,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	s.mu.Lock()
	s.transactions = append([]core.Transaction{tx}, s.transactions...)
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return tx, fmt.Errorf("persist new transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().
			WithOperation(log.OpAdd).
			WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents, tx.Date.String()).
			ToSlice()...)
	s.notify(ctx, log.OpAdd, tx.ID, 1)
	return tx, nil
}

// Delete removes the transaction with the given ID. It reports whether one
// was found; deleting an unknown ID changes nothing and writes nothing.
func (s *TransactionStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i, t := range s.transactions {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	next := make([]core.Transaction, 0, len(s.transactions)-1)
	next = append(next, s.transactions[:idx]...)
	next = append(next, s.transactions[idx+1:]...)
	s.transactions = next
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return true, fmt.Errorf("persist deletion: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	s.notify(ctx, log.OpDelete, id, 1)
	return true, nil
}

// ClearAll empties the list and persists an empty document. Settings are kept.
func (s *TransactionStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	removed := len(s.transactions)
	s.transactions = []core.Transaction{}
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("persist clear: %w", err)
	}

	s.logger.InfoContext(ctx, "All transactions cleared", log.FieldOperation, log.OpClear, log.FieldCount, removed)
	s.notify(ctx, log.OpClear, "", removed)
	return nil
}

// ImportAll replaces the whole list with list. Records are taken as they are;
// use Import to read and validate a backup file first.
func (s *TransactionStore) ImportAll(ctx context.Context, list []core.Transaction) error {
	next := make([]core.Transaction, len(list))
	copy(next, list)

	s.mu.Lock()
	s.transactions = next
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("persist import: %w", err)
	}

	s.logger.InfoContext(ctx, "Transactions imported", log.FieldOperation, log.OpImport, log.FieldCount, len(next))
	s.notify(ctx, log.OpImport, "", len(next))
	return nil
}

// Import reads a backup document, validates every record and replaces the
// list with it. Nothing changes unless the whole document is valid.
func (s *TransactionStore) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read import: %w", err)
	}
	list, err := persistence.DecodeTransactions(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if err := ValidateImport(list); err != nil {
		return 0, err
	}
	if err := s.ImportAll(ctx, list); err != nil {
		return 0, err
	}
	return len(list), nil
}

// ValidateImport checks each record and rejects duplicate IDs.
func ValidateImport(list []core.Transaction) error {
	seen := make(map[string]int, len(list))
	for i, t := range list {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrInvalidImport, i+1, err)
		}
		if first, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: record %d repeats id %q from record %d", ErrInvalidImport, i+1, t.ID, first)
		}
		seen[t.ID] = i + 1
	}
	return nil
}

// SetCurrency changes the display currency; the theme is not touched.
func (s *TransactionStore) SetCurrency(ctx context.Context, c core.Currency) error {
	if !c.IsValid() {
		return core.ErrInvalidCurrency
	}
	s.mu.Lock()
	s.settings.Currency = c
	s.mu.Unlock()

	if err := s.persister.SaveSettings(ctx, core.SettingsUpdate{Currency: &c}); err != nil {
		return fmt.Errorf("persist currency: %w", err)
	}
	s.logger.InfoContext(ctx, "Currency changed", log.FieldOperation, log.OpSettings, log.FieldCurrency, c)
	return nil
}

// ToggleTheme flips between dark and light and returns the new theme.
func (s *TransactionStore) ToggleTheme(ctx context.Context) (core.Theme, error) {
	s.mu.Lock()
	theme := s.settings.Theme.Toggle()
	s.mu.Unlock()

	return theme, s.SetTheme(ctx, theme)
}

// SetTheme sets the theme; the currency is not touched.
func (s *TransactionStore) SetTheme(ctx context.Context, t core.Theme) error {
	if !t.IsValid() {
		return core.ErrInvalidTheme
	}
	s.mu.Lock()
	s.settings.Theme = t
	s.mu.Unlock()

	if err := s.persister.SaveSettings(ctx, core.SettingsUpdate{Theme: &t}); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	s.logger.InfoContext(ctx, "Theme changed", log.FieldOperation, log.OpSettings, log.FieldTheme, t)
	return nil
}

// Transactions returns a copy of the list, most recently added first.
func (s *TransactionStore) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Get returns the transaction with the given ID.
func (s *TransactionStore) Get(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

func (s *TransactionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

func (s *TransactionStore) Settings() core.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *TransactionStore) Currency() core.Currency { return s.Settings().Currency }

func (s *TransactionStore) Theme() core.Theme { return s.Settings().Theme }

// Flush writes the list again if an earlier write failed.
func (s *TransactionStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := s.persistLocked(ctx); err != nil {
		return fmt.Errorf("flush transactions: %w", err)
	}
	return nil
}

// Close flushes pending state. The store must not be used afterwards.
func (s *TransactionStore) Close(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		s.logger.LogError(ctx, "Failed to flush on close", err, log.ErrorTypeStorage, log.OpShutdown, nil)
		return err
	}
	return nil
}

func (s *TransactionStore) persistLocked(ctx context.Context) error {
	err := s.persister.SaveTransactions(ctx, s.transactions)
	s.dirty = err != nil
	if err != nil {
		s.logger.LogError(ctx, "Failed to persist transactions", err, log.ErrorTypeStorage, log.OpSave,
			log.NewFields().WithCount(len(s.transactions)))
	}
	return err
}

func (s *TransactionStore) notify(ctx context.Context, op, id string, count int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishChange(ctx, op, id, count); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change notification",
			log.NewFields().WithOperation(op).WithError(err).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
	}
}
