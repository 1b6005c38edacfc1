package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysErr("encode output: %w", err)
	}
	return nil
}

// preview collapses whitespace and cuts s to n characters.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printFields(cmd *cobra.Command, names []string, fields map[string]string) {
	w := cmd.OutOrStdout()
	for _, name := range names {
		v := fields[name]
		if v == "" {
			continue
		}
		if strings.Contains(v, "\n") {
			fmt.Fprintf(w, "%s:\n", name)
			for _, line := range strings.Split(v, "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", name, v)
	}
}
