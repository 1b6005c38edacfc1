package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Long: "Create the configuration directory with a default config.yaml, then\n" +
			"attach the storage backend once so every table exists with its header.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysErr("create config directory: %w", err)
	}
	dataDir, err := a.dataDir()
	if err != nil {
		return sysErr("resolve data dir: %w", err)
	}

	s := a.settings
	if a.flags.dataDir != "" {
		s.DataDir = dataDir
	}
	wrote, err := writeSettingsIfMissing(a.configDir, s)
	if err != nil {
		return sysErr("%w", err)
	}

	if err := a.open(); err != nil {
		return err
	}
	a.log.Info("initialized", "config_dir", a.configDir, "data_dir", dataDir, "config_written", wrote)

	if a.flags.jsonMode {
		return printJSON(cmd, map[string]interface{}{
			"config_dir": a.configDir,
			"data_dir":   dataDir,
			"backend":    a.settings.Backend,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "storybench initialized\nconfig: %s\ndata:   %s (%s)\n", a.configDir, dataDir, a.settings.Backend)
	return nil
}
