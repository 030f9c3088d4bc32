package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/scandocs/docmatch/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd groups configuration inspection subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// configShowCmd prints the effective configuration after merging defaults,
// config file, environment variables, and flags.
var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the effective configuration",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		format, _ := cmd.Flags().GetString("format")
		var (
			out []byte
			err error
		)
		switch format {
		case "yaml":
			out, err = yaml.Marshal(cfg)
		case outputFormatJSON:
			out, err = json.MarshalIndent(cfg, "", "  ")
			out = append(out, '\n')
		default:
			return fmt.Errorf("invalid format: %s (must be one of: yaml, json)", format)
		}
		if err != nil {
			return err
		}

		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "# loaded from %s\n", used)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// configInitCmd writes a config file populated with defaults.
var configInitCmd = &cobra.Command{
	Use:          "init [path]",
	Short:        "Write a default configuration file",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "docmatch.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		defaults := config.DefaultConfig()
		out, err := yaml.Marshal(&defaults)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, out, 0o644); err != nil { //nolint:gosec // config files are not sensitive
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

// configPathsCmd lists the locations searched for a config file.
var configPathsCmd = &cobra.Command{
	Use:          "paths",
	Short:        "List configuration file search paths",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.GetConfigSearchPaths(), "\n"))
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)

	configShowCmd.Flags().String("format", "yaml", "output format (yaml, json)")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
