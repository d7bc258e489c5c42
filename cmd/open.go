package cmd

import (
	"fmt"

	"github.com/iksnae/agent-sessions/internal/store"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <conversation-id>",
	Short: "Print the command that resumes the original session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected a conversation id")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer st.Close()

		id, err := st.ResolveID(args[0])
		if err != nil {
			return err
		}
		nc, err := st.Get(id)
		if err != nil {
			return err
		}

		c := nc.Conversation
		adapter, ok := newRegistry(cfg).Get(c.Source)
		if !ok {
			return fmt.Errorf("unknown source: %s", c.Source)
		}
		link, ok := adapter.DeepLink(c.Ref)
		if !ok {
			return fmt.Errorf("%s sessions cannot be resumed from the command line", c.Source)
		}
		fmt.Println(link)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
