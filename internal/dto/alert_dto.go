package dto

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// AlertResponse is one entry of GET /v1/alerts. ID is stock_{drug_id} or
// expiry_{batch_id}.
type AlertResponse struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}
