package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storybench/internal/submissions"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

func (a *app) newListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.currentUser(cmd)
			if err != nil {
				return err
			}
			cats := types.Categories
			if category != "" {
				c, err := types.ParseCategory(category)
				if err != nil {
					return err
				}
				cats = []types.Category{c}
			}
			if err := a.open(); err != nil {
				return err
			}
			subs, err := a.submissions.UserSubmissions(user)
			if err != nil {
				return err
			}
			if category != "" {
				subs = map[types.Category][]types.Submission{cats[0]: subs[cats[0]]}
			}

			if a.flags.jsonMode {
				return printJSON(cmd, map[string]interface{}{
					"summary":     submissions.Summarize(subs),
					"submissions": subs,
				})
			}
			w := cmd.OutOrStdout()
			for _, c := range cats {
				fmt.Fprintf(w, "%s (%d)\n", c, len(subs[c]))
				for _, sub := range subs[c] {
					fmt.Fprintf(w, "  #%-4d %s  %s\n", sub.ID, formatTime(sub.CreatedAt), preview(firstField(sub), 60))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")
	return cmd
}

// firstField returns the first non-empty normalized field of sub.
func firstField(sub types.Submission) string {
	for _, f := range sub.Category.Descriptor().Fields {
		if v := sub.Field(f); v != "" {
			return v
		}
	}
	return ""
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <category> <id>",
		Short: "Show one of your submissions",
		Long:  "Show prints the fields of your submission, ready to be edited with submit --id.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.currentUser(cmd)
			if err != nil {
				return err
			}
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			sub, ok, err := a.submissions.Find(user, c, id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no %s submission #%d owned by %s", c, id, user)
			}

			if a.flags.jsonMode {
				return printJSON(cmd, sub)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d  %s\n", c, sub.ID, formatTime(sub.CreatedAt))
			printFields(cmd, c.Descriptor().Fields, sub.Fields)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 || id > types.MaxID {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}
	return id, nil
}
