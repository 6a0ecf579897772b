package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/knowyourrights/kyr/internal/render"
)

var (
	analyzeSession string
	analyzeJSON    bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze an employment contract",
	Long: `Upload a contract for a risk assessment and print the result.

Accepted file types are .pdf, .docx and .txt.

Examples:
  kyr analyze contract.pdf
  kyr analyze --session <id> offer.docx   # attach to a conversation
  kyr analyze --json contract.txt         # print the raw assessment`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeSession, "session", "s", "", "Session id to associate the upload with")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the assessment as returned by the service")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := checkUpload(path); err != nil {
		return err
	}
	cl, err := newClient()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	analysis, err := cl.Analyze(cmd.Context(), analyzeSession, filepath.Base(path), f)
	if err != nil {
		return err
	}

	if analyzeJSON {
		_, err := fmt.Fprintln(os.Stdout, string(analysis.Raw))
		return err
	}
	fmt.Fprintln(os.Stdout, render.New().Analysis(analysis))
	return nil
}
