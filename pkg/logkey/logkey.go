package logkey

// Keys used across the service for structured logging.
const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
)
