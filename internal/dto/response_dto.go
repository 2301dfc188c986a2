package dto

type ErrorResponse struct {
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Details []string `json:"details,omitempty"`
}

type TimestampEchoResponse struct {
	Valid bool `json:"valid"`
}

type TimingReportResponse struct {
	Suspicious bool `json:"suspicious"`
}
