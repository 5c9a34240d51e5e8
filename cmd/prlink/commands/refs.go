package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

var refsText string

// refsCmd represents the refs command
var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "Parse issue references from text",
	Long: `Parse closing-keyword issue references ("Closes #12", "fixes org/repo#3")
from text and print them as JSON. Reads from --text or stdin. Debug aid for
the reference grammar.`,
	Run: func(cmd *cobra.Command, args []string) {
		runRefs()
	},
}

func init() {
	rootCmd.AddCommand(refsCmd)

	refsCmd.Flags().StringVar(&refsText, "text", "", "Text to parse (stdin if not specified)")
}

func runRefs() {
	text := refsText
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Printf("❌ Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		text = string(data)
	}

	refs := linkage.ParseRefs(text)
	if refs == nil {
		refs = []linkage.IssueRef{}
	}

	out, err := json.MarshalIndent(refs, "", "  ")
	if err != nil {
		fmt.Printf("❌ Error encoding references: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
