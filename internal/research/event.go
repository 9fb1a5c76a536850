package research

import "time"

// Type tags the kind of progress event a stage emits onto the event bus.
type Type string

const (
	TypeStatusUpdate     Type = "status_update"
	TypeQueryGenerating  Type = "query_generating"
	TypeQueryGenerated   Type = "query_generated"
	TypeQuerySearching   Type = "query_searching"
	TypeQuerySearched    Type = "query_searched"
	TypeDocumentKept     Type = "document_kept"
	TypeCategoryStart    Type = "category_start"
	TypeCategoryComplete Type = "category_complete"
	TypeExtracting       Type = "extracting"
	TypeExtracted        Type = "extracted"
	TypeBatchStart       Type = "batch_start"
	TypeReportChunk      Type = "report_chunk"
	TypeError            Type = "error"
)

// Status is a Job's lifecycle state as carried in a status_update event.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Event is the timestamped, typed record the pipeline engine publishes
// to the event bus. Seq is assigned by the event bus at publish time
// (never by the stage that authored the event), resolving the
// distilled spec's "sequence hints" language into a concrete,
// monotonically increasing per-job counter.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Seq       uint64    `json:"seq"`
	Data      EventData `json:"data"`
}

// EventData is the payload carried by an Event. Only the fields relevant
// to Type are populated; the rest are left at their zero value. Keeping
// one payload struct (rather than one type per event) matches the wire
// shape in §6 of the specification, where every event is
// {type, timestamp, data}.
type EventData struct {
	Status   Status  `json:"status,omitempty"`
	Progress int     `json:"progress,omitempty"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
	Result   *Result `json:"result,omitempty"`

	Category string `json:"category,omitempty"`
	Query    string `json:"query,omitempty"`
	Chunk    string `json:"chunk,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Result is the terminal payload of a completed job's status_update
// event.
type Result struct {
	Report  string `json:"report"`
	Company string `json:"company"`
}

// StatusUpdate builds a status_update Event. The event bus fills in
// Timestamp and Seq at publish time.
func StatusUpdate(status Status, progress int, message string, err error, result *Result) Event {
	data := EventData{Status: status, Progress: progress, Message: message, Result: result}
	if err != nil {
		data.Error = err.Error()
	}
	return Event{Type: TypeStatusUpdate, Data: data}
}

// CategoryEvent builds an event scoped to a single research category
// (one of financial_analyst, news_scanner, industry_analyst,
// company_analyst).
func CategoryEvent(t Type, category, message string) Event {
	return Event{Type: t, Data: EventData{Category: category, Message: message}}
}
