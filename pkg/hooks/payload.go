package hooks

// PromptPayload is read from stdin by the label hook.
type PromptPayload struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversationId"`
}

// LabelResult is written to stdout by the label hook. Text is the possibly
// rewritten command; the other fields are set only when labels were removed.
type LabelResult struct {
	Text          string   `json:"text"`
	Warning       string   `json:"warning,omitempty"`
	InvalidLabels []string `json:"invalid_labels,omitempty"`
}
