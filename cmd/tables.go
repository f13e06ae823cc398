package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cube2222/udtf/storage"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Load and list the configured tables.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		store, err := storage.LoadStore(memory.NewGoAllocator(), cfg)
		if err != nil {
			return fmt.Errorf("couldn't load tables: %w", err)
		}
		defer store.Close()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"name", "columns", "fragments", "rows"})
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		for _, name := range store.TableNames() {
			t, err := store.Table(name)
			if err != nil {
				return err
			}
			columns := make([]string, len(t.Schema.Fields()))
			for i, field := range t.Schema.Fields() {
				columns[i] = fmt.Sprintf("%s %s", field.Name, field.Type)
			}
			var rows int64
			for _, fragment := range t.Fragments {
				rows += fragment.NumRows()
			}
			table.Append([]string{
				name,
				strings.Join(columns, ", "),
				fmt.Sprint(len(t.Fragments)),
				fmt.Sprint(rows),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
