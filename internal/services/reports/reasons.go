package reports

// exceptionReasons maps exception statuses to their diagnostic text.
// Statuses outside this table are not exceptions.
var exceptionReasons = map[string]string{
	"FAILED":     "Transaction processing failed",
	"DENIED":     "Request was denied by system",
	"BLOCKED":    "Transaction blocked by security",
	"CRITICAL":   "Critical system error detected",
	"DROPPED":    "Connection dropped during processing",
	"DELINQUENT": "Account is past due",
	"DELAYED":    "Processing delayed beyond threshold",
	"MISSING":    "Required data not found",
	"TAMPERED":   "Data integrity check failed",
	"LAPSED":     "Policy or coverage has lapsed",
	"RETURNED":   "Item or payment returned",
	"FLAGGED":    "Flagged for manual review",
	"ALERT":      "Security alert triggered",
}

// defaultExceptionReason covers exception rows whose status carries no
// mapped diagnostic
const defaultExceptionReason = "Unknown exception"

// IsExceptionStatus reports whether a status belongs to the exception set
func IsExceptionStatus(status string) bool {
	_, ok := exceptionReasons[status]
	return ok
}

// ExceptionReason returns the diagnostic text for an exception status
func ExceptionReason(status string) string {
	if reason, ok := exceptionReasons[status]; ok {
		return reason
	}
	return defaultExceptionReason
}
