package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldKey           = "key"
	FieldBackend       = "backend"
	FieldTransactionID = "transaction_id"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldDate          = "date"
	FieldCount         = "count"
	FieldCurrency      = "currency"
	FieldTheme         = "theme"
	FieldPath          = "path"
	FieldDuration      = "duration_ms"
	FieldIndex         = "index"
	FieldBytes         = "bytes"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentCLI         = "cli"
	ComponentStore       = "store"
	ComponentPersistence = "persistence"
	ComponentStorage     = "storage"
	ComponentBackend     = "backend"
	ComponentExport      = "export"
	ComponentAMQP        = "amqp"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpDelete   = "delete"
	OpClear    = "clear"
	OpImport   = "import"
	OpLoad     = "load"
	OpSave     = "save"
	OpSettings = "settings"
	OpExport   = "export"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeParse         = "parse_error"
	ErrorTypeNetwork       = "network_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType tags the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithKey adds the storage key
func (f LogFields) WithKey(key string) LogFields {
	f[FieldKey] = key
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id, typ, category string, amountCents int64, date string) LogFields {
	f[FieldTransactionID] = id
	f[FieldType] = typ
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	f[FieldDate] = date
	return f
}

// WithCount adds a record count
func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
