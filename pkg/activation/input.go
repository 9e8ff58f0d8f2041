package activation

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// HookInput is the JSON document the assistant writes to the hook's stdin
// when the user submits a prompt.
type HookInput struct {
	Prompt         string `json:"prompt"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Cwd            string `json:"cwd,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	PermissionMode string `json:"permission_mode,omitempty"`
}

// StateID identifies the session state file: the conversation id when
// present, otherwise the session id.
func (in HookInput) StateID() string {
	if id := strings.TrimSpace(in.ConversationID); id != "" {
		return id
	}
	return strings.TrimSpace(in.SessionID)
}

// ParseInput reads r to the end and decodes a single hook payload.
func ParseInput(r io.Reader) (HookInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return HookInput{}, errors.Wrap(err, "failed to read hook input")
	}
	var in HookInput
	if len(strings.TrimSpace(string(data))) == 0 {
		return in, errors.New("hook input is empty")
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return HookInput{}, errors.Wrap(err, "failed to parse hook input")
	}
	return in, nil
}
