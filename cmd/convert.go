package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hurou927/text2sql/internal/output"
)

var (
	convertFile   string
	convertFormat string
	convertOutput string
)

var convertCmd = &cobra.Command{
	Use:   "convert [question...]",
	Short: "Convert questions to SQL",
	Long: `Converts questions to SQL. The arguments form one question; with --file,
or with no arguments, questions are read one per line and converted
concurrently. Output is an annotated SQL script or JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(convertFormat)
		if err != nil {
			return err
		}

		questions, err := readQuestions(args)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("no questions given")
		}

		ctx := cmd.Context()
		conv, err := newConverter(ctx, cfg.Cache.Size)
		if err != nil {
			return err
		}

		outPath := convertOutput
		if outPath == "" {
			outPath = cfg.Output
		}
		var w io.Writer = os.Stdout
		if outPath != "" && outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		logger.Debug("converting", zap.Int("questions", len(questions)))
		results := conv.BatchConvert(ctx, questions)
		failed, err := output.Write(w, format, conv.Catalog().DatabaseName(), results)
		if err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		if outPath != "" && outPath != "-" {
			fmt.Fprintf(os.Stderr, "Output written to: %s\n", outPath)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d questions could not be converted", failed, len(results))
		}
		return nil
	},
}

// readQuestions returns the joined arguments, or the non-blank lines of
// --file or stdin.
func readQuestions(args []string) ([]string, error) {
	if len(args) > 0 && convertFile == "" {
		return []string{strings.Join(args, " ")}, nil
	}

	var r io.Reader = os.Stdin
	if convertFile != "" && convertFile != "-" {
		f, err := os.Open(convertFile)
		if err != nil {
			return nil, fmt.Errorf("opening questions file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return scanLines(r)
}

func scanLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading questions: %w", err)
	}
	return out, nil
}

func init() {
	convertCmd.Flags().StringVarP(&convertFile, "file", "f", "", "read questions from file, one per line (- for stdin)")
	convertCmd.Flags().StringVar(&convertFormat, "format", "sql", "output format: sql or json")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file path (overrides config)")
	rootCmd.AddCommand(convertCmd)
}
