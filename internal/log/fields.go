package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldDuration   = "duration_ms"
	FieldPeriod     = "period"
	FieldRangeStart = "range_start"
	FieldRangeEnd   = "range_end"
	FieldEndpoint   = "endpoint"
	FieldPage       = "page"
	FieldCursor     = "cursor"
	FieldEdges      = "edges"
	FieldStatusCode = "status_code"
	FieldCount      = "count"
	FieldTotalPaid  = "total_paid"
	FieldAppID      = "app_id"
	FieldAppName    = "app_name"
	FieldApps       = "apps"
	FieldSink       = "sink"
	FieldPath       = "path"
	FieldRunID      = "run_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentPartner = "partner"
	ComponentReport  = "report"
	ComponentFile    = "file"
	ComponentStorage = "storage"
	ComponentSheets  = "sheets"
	ComponentAMQP    = "amqp"
	ComponentOutput  = "output"
)

// Operations defines standard operation names
const (
	OpFetch     = "fetch"
	OpSummarize = "summarize"
	OpWrite     = "write"
	OpNotify    = "notify"
	OpValidate  = "validate"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeContract      = "contract_error"
	ErrorTypeParse         = "parse_error"
	ErrorTypeTimeout       = "timeout_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithPeriod adds the reporting period and its range bounds.
func (f LogFields) WithPeriod(period, start, end string) LogFields {
	f[FieldPeriod] = period
	f[FieldRangeStart] = start
	f[FieldRangeEnd] = end
	return f
}

func (f LogFields) WithTotals(count int, totalPaid string) LogFields {
	f[FieldCount] = count
	f[FieldTotalPaid] = totalPaid
	return f
}

func (f LogFields) WithSink(name string) LogFields {
	f[FieldSink] = name
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
