package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

func (a *app) newSubmitCmd() *cobra.Command {
	var (
		categories []string
		id         int
		sets       []string
		setFiles   []string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Save a submission in one or more categories",
		Long: `Submit validates the form fields and writes one row per selected
category. Fields are given as key=value pairs or read from files.

With --id the submission you own with that id is replaced in each
category; without it a new id is assigned per category.

Form fields:
  story:      prompt, technology, story
  theme:      theme_prompt, theme_placeholders, theme_original_story, theme_story
  education:  education_prompt, education_placeholders, education_original_story, education_story
  questions:  questions_prompt, questions_placeholders, questions_original_story, questions
  technology is shared by every category.

Example:
  storybench submit -c story --set technology=Gemini \
    --set-file prompt=prompt.txt --set-file story=story.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.currentUser(cmd)
			if err != nil {
				return err
			}
			fields, err := parseFields(sets, setFiles)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			ids, err := a.submissions.Save(user, fields, categories, id)
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, map[string]interface{}{"saved": ids})
			}
			for _, c := range types.Categories {
				if usedID, ok := ids[c]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "saved %s #%d\n", c, usedID)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "category to save (repeatable: story, theme, education, questions)")
	cmd.Flags().IntVar(&id, "id", 0, "id of your submission to replace")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "form field as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&setFiles, "set-file", nil, "form field as key=path, read from the file (repeatable)")
	return cmd
}

// parseFields builds the form field bag from --set and --set-file values.
// Unknown field names are rejected.
func parseFields(sets, setFiles []string) (map[string]string, error) {
	known := knownFields()
	isKnown := func(key string) bool {
		i := sort.SearchStrings(known, key)
		return i < len(known) && known[i] == key
	}

	fields := make(map[string]string)
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (expected key=value)", kv)
		}
		if !isKnown(key) {
			return nil, fmt.Errorf("unknown field %q (valid: %s)", key, strings.Join(known, ", "))
		}
		fields[key] = value
	}
	for _, kp := range setFiles {
		key, path, ok := strings.Cut(kp, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || path == "" {
			return nil, fmt.Errorf("invalid --set-file %q (expected key=path)", kp)
		}
		if !isKnown(key) {
			return nil, fmt.Errorf("unknown field %q (valid: %s)", key, strings.Join(known, ", "))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read field %s: %w", key, err)
		}
		fields[key] = string(data)
	}
	return fields, nil
}

// knownFields lists every form field name, for help and error output.
func knownFields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range types.Categories {
		for _, f := range c.Descriptor().Fields {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out
}
