package main

import (
	"fmt"
	"text/tabwriter"

	"cyoa-server/internal/app"
	"cyoa-server/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSuggestCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <character-id>...",
		Short: "Print story path suggestions for a set of characters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			store, closeStore, err := app.OpenStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			branching := service.NewBranchingService(store, nil, service.DefaultIntn, e.logger)
			suggestions, err := branching.SuggestStoryPaths(cmd.Context(), ids)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "THEME\tDESCRIPTION\tCONFLICT")
			for _, s := range suggestions {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Theme, s.Description, s.SuggestedConflict)
			}
			return w.Flush()
		},
	}
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid character id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
