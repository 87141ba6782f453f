package logging

// Standardized field names for structured logging.
// These constants keep log output consistent across the collector, parser
// and export stages so runs can be filtered by pass.
const (
	FieldPass        = "pass"
	FieldCount       = "count"
	FieldNew         = "new"
	FieldDuplicates  = "duplicates"
	FieldStall       = "stall"
	FieldReason      = "reason"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldOutputFile  = "output_file"
	FieldSnapshot    = "snapshot"
	FieldAttempt     = "attempt"
)
