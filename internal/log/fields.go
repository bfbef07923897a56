package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldError      = "error"
	FieldExpenseID  = "expense_id"
	FieldEmployeeID = "employee_id"
	FieldStatus     = "status"
	FieldPeriod     = "period"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentExpense    = "expense"
	ComponentEmployee   = "employee"
	ComponentImage      = "image"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentReconciler = "reconciler"
	ComponentCache      = "cache"
)
