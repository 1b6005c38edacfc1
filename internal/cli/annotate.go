package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storybench/internal/annotations"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

func (a *app) newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <category>",
		Short: "Pick a submission for you to annotate",
		Long: "Next picks at random one submission of the category that is not yours,\n" +
			"that you have not annotated, and that has fewer than three annotations.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.currentUser(cmd)
			if err != nil {
				return err
			}
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			sub, ok, err := a.selector.Next(c, user)
			if err != nil {
				return err
			}
			d := c.Descriptor()

			if a.flags.jsonMode {
				out := map[string]interface{}{"found": ok, "checks": d.Checks}
				if ok {
					out["submission"] = sub
				}
				return printJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(w, "nothing left to annotate in %s\n", c)
				return nil
			}
			fmt.Fprintf(w, "%s #%d by %s\n", c, sub.ID, sub.Owner)
			printFields(cmd, d.Fields, sub.Fields)
			fmt.Fprintf(w, "\nchecks: %s\n", strings.Join(d.Checks, ", "))
			return nil
		},
	}
}

func (a *app) newAnnotateCmd() *cobra.Command {
	var (
		checks []string
		notes  string
	)
	cmd := &cobra.Command{
		Use:   "annotate <category> <submission-id>",
		Short: "Record your quality review of a submission",
		Long: `Annotate stores one review: each --check names a quality check that
passed; checks not named are recorded as failed.

Checks:
  story:      age_appropriateness, clarity, creativity, language, message, literature
  theme:      theme_quality, theme_success, roleplaying
  education:  education_quality, naturalness, correctness
  questions:  difficulty, completeness, correctness_of_responses`,
		Args: cobra.ExactArgs(2),
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
			d := c.Descriptor()
			form := map[string]string{types.NotesField: notes}
			for _, name := range checks {
				if !slices.Contains(d.Checks, name) {
					return fmt.Errorf("unknown %s check %q (valid: %s)", c, name, strings.Join(d.Checks, ", "))
				}
				form[name] = "on"
			}

			if err := a.open(); err != nil {
				return err
			}
			sub, ok, err := a.records.GetForReviewer(c, id, user)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no %s submission #%d", c, id)
			}
			if sub.Owner == user {
				return errors.New("you cannot annotate your own submission")
			}

			fields, err := annotations.ParseForm(c, form)
			if err != nil {
				return err
			}
			if err := a.annotations.SaveUnique(id, c, user, fields); err != nil {
				if errors.Is(err, types.ErrAlreadyAnnotated) {
					return fmt.Errorf("you already annotated %s #%d", c, id)
				}
				return err
			}

			checked := fields.Checked(d.Checks)
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]interface{}{
					"submission_id": id,
					"category":      c,
					"fields":        fields,
					"checked":       checked,
					"max_fields":    len(d.Checks),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "annotated %s #%d: %d/%d checks\n", c, id, checked, len(d.Checks))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&checks, "check", nil, "quality check that passed (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	return cmd
}
