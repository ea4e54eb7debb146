package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hurou927/text2sql/internal/graph"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show the schema's foreign key graph",
	Long:  `Loads the schema document, builds the foreign key graph the join resolver walks, and outputs it in the specified format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		switch analyzeFormat {
		case "mermaid":
			return graph.WriteMermaid(os.Stdout, cat.Graph())
		case "text":
			return graph.WriteText(os.Stdout, cat.Graph())
		case "summary":
			_, err := fmt.Fprint(os.Stdout, cat.Describe())
			return err
		case "prompt":
			_, err := fmt.Fprintln(os.Stdout, cat.PromptContext())
			return err
		default:
			return fmt.Errorf("unknown format: %s (supported: mermaid, text, summary, prompt)", analyzeFormat)
		}
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "mermaid", "output format: mermaid, text, summary or prompt")
	rootCmd.AddCommand(analyzeCmd)
}
