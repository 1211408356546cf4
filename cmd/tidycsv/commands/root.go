// Package commands implements the tidycsv command line.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd builds the command tree. Flag values resolve in the order
// flag, TIDYCSV_* environment variable, config file, default.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TIDYCSV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfgFile string
	root := &cobra.Command{
		Use:           "tidycsv",
		Short:         "Clean CSV, TSV and XLSX files",
		Long:          `tidycsv removes duplicate rows, fills missing values and normalizes text columns in tabular data files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile == "" {
				return nil
			}
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", cfgFile, err)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	_ = v.BindPFlag("log-level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log-format", pf.Lookup("log-format"))

	root.AddCommand(newCleanCmd(v))
	return root
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
