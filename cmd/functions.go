package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cube2222/udtf/table_valued_functions"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the available table functions.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		functions := table_valued_functions.FunctionMap()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"name", "arguments", "outputs", "description"})
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		for _, name := range table_valued_functions.FunctionNames() {
			descriptor := functions[name]
			arguments := make([]string, len(descriptor.Arguments))
			for i, arg := range descriptor.Arguments {
				arguments[i] = fmt.Sprintf("%s %s %s", arg.Name, arg.Kind, arg.Type)
			}
			outputs := make([]string, len(descriptor.Outputs))
			for i, target := range descriptor.Outputs {
				outputs[i] = fmt.Sprintf("%s %s", target.Name, target.Type)
			}
			table.Append([]string{
				name,
				strings.Join(arguments, ", "),
				strings.Join(outputs, ", "),
				descriptor.Description,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}
