package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

func (a *app) newScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Show the annotation scores of your submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.currentUser(cmd)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			scores, err := a.scoring.OwnerScores(user)
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, scores)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-10s %10s %12s\n", "CATEGORY", "SCORE", "ANNOTATIONS")
			for _, c := range types.Categories {
				s := scores[c]
				fmt.Fprintf(w, "%-10s %6.1f/%-3d %12d\n", c, s.Score, s.Max, s.Count)
			}
			return nil
		},
	}
}

func (a *app) newAnnotationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "annotations",
		Short: "List the annotations you wrote, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.currentUser(cmd)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			act, err := a.scoring.AnnotatorActivity(user)
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, act)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d annotations\n", act.Total)
			for _, c := range types.Categories {
				ca := act.ByCategory[c]
				fmt.Fprintf(w, "  %-10s %3d  avg %.1f\n", c, ca.Count, ca.AvgScore)
			}
			for _, d := range act.Details {
				an := d.Annotation
				fmt.Fprintf(w, "%s  %s #%d  %d/%d", formatTime(an.CreatedAt), an.Category, an.SubmissionID, d.Checked, d.MaxFields)
				if d.Submission.ID != 0 {
					fmt.Fprintf(w, "  by %s: %s", d.Submission.Owner, preview(firstField(d.Submission), 50))
				}
				if an.Fields.Notes != "" {
					fmt.Fprintf(w, "  notes: %s", preview(an.Fields.Notes, 40))
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}
