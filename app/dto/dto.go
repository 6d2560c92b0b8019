package dto

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse reports service and storage status
type HealthResponse struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}
