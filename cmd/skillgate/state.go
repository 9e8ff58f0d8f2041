package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jingkaihe/skillgate/pkg/config"
	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/jingkaihe/skillgate/pkg/state"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect per-conversation skill state",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var stateShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Print the skills acknowledged in a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := stateStore()
		if err != nil {
			return err
		}
		return showState(cmd.OutOrStdout(), store, args[0])
	},
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations with recorded state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := stateStore()
		if err != nil {
			return err
		}
		ids, err := store.List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			presenter.Info(fmt.Sprintf("No state recorded in %s", store.Dir()))
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateListCmd)
}

func stateStore() (*state.Store, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return state.NewStore(cfg.Resolve("").StateDir), nil
}

func showState(w io.Writer, store *state.Store, id string) error {
	st, err := store.Read(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode state")
	}
	fmt.Fprintln(w, string(data))
	return nil
}
