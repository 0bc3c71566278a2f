package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldUserID    = "user_id"
	FieldChatID    = "chat_id"
	FieldGroupID   = "group_id"
	FieldReceiptID = "receipt_id"
	FieldAction    = "action"
	FieldScope     = "scope"
	FieldJobID     = "job_id"
	FieldFileID    = "file_id"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentWebhook  = "webhook"
	ComponentBot      = "bot"
	ComponentScope    = "scope"
	ComponentSummary  = "summary"
	ComponentDocstore = "docstore"
	ComponentVision   = "vision"
	ComponentQueue    = "queue"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentTelegram = "telegram"
)
