// Package cli implements the storybench command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// EnvUser supplies --user when the flag is absent.
const EnvUser = "STORYBENCH_USER"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "storybench",
		Short: "Collect and annotate LLM prompt/response submissions",
		Long: "storybench records prompt/response submissions in four categories\n" +
			"(story, theme, education, questions), lets users review each other's\n" +
			"work with quality checks, and reports the resulting scores.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.storybench-data)")
	root.PersistentFlags().StringVar(&a.flags.user, "user", os.Getenv(EnvUser), "acting username (env "+EnvUser+")")
	root.PersistentFlags().StringVar(&a.flags.password, "password", "", "password, checked when require_password is set")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newSubmitCmd(),
		a.newListCmd(),
		a.newShowCmd(),
		a.newNextCmd(),
		a.newAnnotateCmd(),
		a.newScoresCmd(),
		a.newAnnotationsCmd(),
		a.newUserCmd(),
	)
	return root
}

// NewRootCmd returns the storybench command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

// Run executes the command line args and returns the exit code. Errors
// are written to stderr.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.close()
	if err != nil {
		printError(stderr, err)
	}
	return exitCode(err)
}

// Execute runs the CLI with the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func printError(w io.Writer, err error) {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		for _, m := range verr.Messages {
			fmt.Fprintln(w, "error:", m)
		}
		return
	}
	fmt.Fprintln(w, "error:", err)
}
