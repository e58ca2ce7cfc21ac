package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/teranos/edict/am"
	"github.com/teranos/edict/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage EDICT core configuration",
	Long: `am — Manage EDICT core configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (EDICT_* prefix)
2. Project config (./am.toml)
3. User config (~/.edict/am.toml)
4. Default values

Examples:
  edict am show                   # Show current configuration
  edict am show --json            # Show configuration as JSON
  edict am init                   # Write the default config file
  edict am path                   # Print the config file path`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to ~/.edict/am.toml",
	RunE:  runAmInit,
}

var amPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(am.ConfigPath())
		return nil
	},
}

func init() {
	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amPathCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cfg)
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal configuration")
	}
	fmt.Print(string(content))
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	cfg := am.Default()
	if err := am.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", am.ConfigPath())
	return nil
}
