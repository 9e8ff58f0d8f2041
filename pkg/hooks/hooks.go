// Package hooks implements the prompt-submit hooks that sit beside skill
// activation. The label hook checks `gh issue create` commands against the
// repository's labels and rewrites them so only existing labels are passed.
package hooks

import (
	"time"
)

// DefaultTimeout bounds each external command run by a hook.
const DefaultTimeout = 30 * time.Second

// LabelCacheTTL is how long a fetched label list is reused.
const LabelCacheTTL = 5 * time.Minute

// labelListArgs lists repository labels one per line.
var labelListArgs = []string{"label", "list", "--json", "name", "--jq", ".[].name"}
