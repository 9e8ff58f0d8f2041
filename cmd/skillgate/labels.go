package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jingkaihe/skillgate/pkg/hooks"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var ghLabelsCmd = &cobra.Command{
	Use:   "gh-labels",
	Short: "Drop unknown labels from `gh issue create` commands",
	Long: `Read {"text": ..., "conversationId": ...} from stdin. When the text is a
gh issue create command with --label flags, labels missing from the
repository are removed and reported. The result is written to stdout as
{"text": ..., "warning": ..., "invalid_labels": [...]}.

The hook never blocks: on any failure the input passes through unchanged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		runGHLabels(cmd.Context(), hooks.NewLabelValidator(), cmd.InOrStdin(), cmd.OutOrStdout())
		return nil
	},
}

func runGHLabels(ctx context.Context, validator *hooks.LabelValidator, stdin io.Reader, stdout io.Writer) {
	log := logger.G(ctx)

	var payload hooks.PromptPayload
	if err := json.NewDecoder(stdin).Decode(&payload); err != nil {
		log.WithError(err).Warn("invalid label hook input")
		return
	}
	ctx = logger.WithFields(ctx, logrus.Fields{"conversation_id": payload.ConversationID})

	result := validator.Validate(ctx, payload.Text)
	if err := json.NewEncoder(stdout).Encode(result); err != nil {
		log.WithError(err).Warn("failed to write label hook output")
	}
}
