package log

// Field names shared across packages so log output stays greppable.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldUserID    = "user_id"
	FieldMemberID  = "member_id"
	FieldFamilyID  = "family_id"
	FieldRecordID  = "record_id"
)

// Component names used with FieldComponent.
const (
	ComponentHTTP   = "http"
	ComponentEvents = "events"
)
