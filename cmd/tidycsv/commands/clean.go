package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/tidycsv/internal/core"
	"github.com/JonMunkholm/tidycsv/internal/logging"
	"github.com/JonMunkholm/tidycsv/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"text", "json", "yaml"}

func newCleanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Clean a file and write cleaned_<file> to the output directory",
		Example: `  tidycsv clean sales.csv --numeric median
  TIDYCSV_CATEGORICAL=mode tidycsv clean survey.xlsx -o out --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, v, args[0])
		},
	}

	f := cmd.Flags()
	f.String("numeric", "", "numeric fill strategy: mean, median, mode or none")
	f.String("categorical", "", "categorical fill strategy: mode or constant")
	f.StringP("out", "o", ".", "directory for the cleaned file")
	f.String("format", "text", "summary output: "+strings.Join(outputFormats, ", "))
	for _, name := range []string{"numeric", "categorical", "out", "format"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func runClean(cmd *cobra.Command, v *viper.Viper, path string) error {
	outFormat := strings.ToLower(v.GetString("format"))
	if !validOutput(outFormat) {
		return fmt.Errorf("unknown --format %q (want one of %s)", outFormat, strings.Join(outputFormats, ", "))
	}

	logger := logging.New(cmd.ErrOrStderr(), v.GetString("log-level"), v.GetString("log-format"))

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	// Uploads go to a scratch directory so the input is never overwritten.
	scratch, err := os.MkdirTemp("", "tidycsv-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	outDir := v.GetString("out")
	store, err := storage.New(scratch, outDir)
	if err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	svc := core.NewService(store, core.WithRetention(0))
	defer svc.Close()

	ctx := logging.NewContext(cmd.Context(), logger)
	res, err := svc.Clean(ctx, core.CleanRequest{
		FileName:            filepath.Base(path),
		Body:                in,
		NumericStrategy:     v.GetString("numeric"),
		CategoricalStrategy: v.GetString("categorical"),
	})
	if err != nil {
		if core.IsUserFacing(err) {
			return core.NewUserError(err)
		}
		return err
	}

	report := cleanReport{
		Input:     path,
		Output:    filepath.Join(outDir, res.CleanedFileName),
		RunResult: *res,
	}
	return writeReport(cmd.OutOrStdout(), outFormat, report)
}

// cleanReport is what clean prints.
type cleanReport struct {
	Input          string `json:"input" yaml:"input"`
	Output         string `json:"output" yaml:"output"`
	core.RunResult `yaml:",inline"`
}

func validOutput(f string) bool {
	for _, o := range outputFormats {
		if f == o {
			return true
		}
	}
	return false
}

func writeReport(w io.Writer, format string, r cleanReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, r)
	}
}

func writeText(w io.Writer, r cleanReport) error {
	s := r.Summary
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Cleaned %s -> %s\n", r.Input, r.Output)
	fmt.Fprintf(tw, "Rows\t%d -> %d\t(%d duplicates removed)\n", s.RowsBefore, s.RowsAfter, s.DuplicatesRemoved)
	fmt.Fprintf(tw, "Missing\t%d -> %d\t(%d filled)\n", s.MissingBefore, s.MissingAfter, s.ValuesFilled)
	fmt.Fprintf(tw, "Numeric strategy\t%s\n", s.NumericApplied)
	fmt.Fprintf(tw, "Categorical strategy\t%s\n", s.CategoricalApplied)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "COLUMN\tBEFORE\tAFTER")
	for _, c := range s.MissingByColumn() {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", c.Name, c.Before, c.After)
	}
	for _, warn := range s.Warnings {
		fmt.Fprintf(tw, "warning: %s\n", warn)
	}
	return tw.Flush()
}
