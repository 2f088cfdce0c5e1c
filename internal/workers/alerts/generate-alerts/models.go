// internal/workers/alerts/generate-alerts/models.go
package generatealerts

// Input is empty: the BPMN timer event triggers the batch, and the
// subscriber list comes from the profile store.
type Input struct{}

type Output struct {
	Subscribers int `json:"subscribers"`
	Sent        int `json:"sent"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}
