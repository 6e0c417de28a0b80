package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimline/claimline/internal/extract"
)

// formatsCmd represents the formats command
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported date formats with worked examples",
	Run: func(cmd *cobra.Command, args []string) {
		examples := extract.FormatExamples(time.Now())
		fmt.Println("Supported date formats (trial order):")
		for _, f := range extract.SupportedDateFormats {
			fmt.Printf("  %-12s e.g. %s\n", f, examples[f])
		}
		fmt.Println("\nWhen --date-format is set to a non-default format, only that format is tried.")
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
