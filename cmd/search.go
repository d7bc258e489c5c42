package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/agent-sessions/internal/store"
	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search message text across all conversations",
	Long:  `Full-text search over indexed messages. Queries use SQLite FTS5 syntax, so phrases can be quoted and terms combined with AND/OR.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer st.Close()

		query := strings.Join(args, " ")
		hits, err := st.Search(query, searchLimit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, headerStyle.Render("ID\tSOURCE\tROLE\tSNIPPET"))
		for _, h := range hits {
			snippet := strings.ReplaceAll(h.Snippet, "\n", " ")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				idStyle.Render(h.ConversationID[:12]),
				sourceStyle.Render(h.Source),
				h.Role,
				snippet,
			)
		}
		return w.Flush()
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
