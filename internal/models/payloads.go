package models

// These structs define the JSON payloads carried by the messages exchanged
// between a worker and the caller that submitted a job.

// JobProgressPayload is the data of a progress message.
type JobProgressPayload struct {
	JobID    string  `json:"jobId"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// JobSucceededPayload is the data of a success message. The output bytes travel
// alongside the message rather than inside it.
type JobSucceededPayload struct {
	JobID   string          `json:"jobId"`
	Outputs []OutputSummary `json:"outputs"`
}

// JobFailedPayload is the data of a failure message.
type JobFailedPayload struct {
	JobID  string `json:"jobId"`
	Reason string `json:"reason"`
}

// OutputSummary describes an output without its content.
type OutputSummary struct {
	Name      string   `json:"name"`
	MediaType string   `json:"mediaType"`
	Size      int      `json:"size"`
	Notes     []string `json:"notes,omitempty"`
}

// Summarize drops the content of outputs.
func Summarize(outputs []Output) []OutputSummary {
	summaries := make([]OutputSummary, len(outputs))
	for i, o := range outputs {
		summaries[i] = OutputSummary{Name: o.Name, MediaType: o.MediaType, Size: o.Size(), Notes: o.Notes}
	}
	return summaries
}
