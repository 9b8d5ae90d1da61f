package client

// Device is a fleet device record returned by /devices/query. Unknown
// backend fields are ignored on decode.
type Device struct {
	ID      string              `json:"id"`
	Name    string              `json:"name,omitempty"`
	Enabled bool                `json:"enabled,omitempty"`
	Tags    map[string][]string `json:"tags,omitempty"`
}

// TaskReport carries the cleaning-square coordinates of one task run.
type TaskReport struct {
	RobotCleaningSquareX float64 `json:"robotCleaningSquareX"`
	RobotCleaningSquareY float64 `json:"robotCleaningSquareY"`
}

// TaskSummary is one task-summary event returned by /events/query.
type TaskSummary struct {
	ID       string     `json:"id,omitempty"`
	DeviceID string     `json:"deviceId,omitempty"`
	Time     string     `json:"time,omitempty"`
	Report   TaskReport `json:"report"`
}

// deviceQueryRequest is the /devices/query request body. Enabled is only
// sent when filtering to enabled devices.
type deviceQueryRequest struct {
	Tags    map[string][]string `json:"tags"`
	Enabled *bool               `json:"enabled,omitempty"`
}

// eventQueryRequest is the /events/query request body.
type eventQueryRequest struct {
	EventTypes []string `json:"eventTypes"`
	Count      int      `json:"count"`
	Offset     int      `json:"offset"`
	DeviceIDs  []string `json:"deviceIds"`
}

// itemsResponse is the common {"items": [...]} response envelope.
type itemsResponse[T any] struct {
	Items []T `json:"items"`
}
