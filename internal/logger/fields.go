package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the processing pipeline.
const (
	// FieldDocumentID is the id of the document being processed
	FieldDocumentID = "document_id"

	// FieldWorkerID is the identifier of this worker process
	FieldWorkerID = "worker_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldStatus is the job status driving the current transition
	FieldStatus = "status"

	// FieldRequestID is the id of one status API request
	FieldRequestID = "request_id"
)

// Standard metric fields used for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldQuality is the estimated OCR quality score
	FieldQuality = "quality"

	// FieldPages is a page count
	FieldPages = "pages"
)
