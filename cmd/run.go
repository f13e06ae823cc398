package cmd

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/cube2222/udtf/arrowexec/execution"
	"github.com/cube2222/udtf/arrowexec/nodes"
	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/outputs/formats"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/storage"
	"github.com/cube2222/udtf/table_valued_functions"
	"github.com/cube2222/udtf/tablefunc"
)

var (
	runTable      string
	runDevice     string
	runMultiplier float64
	runOutput     string
	runExplain    bool
)

var runCmd = &cobra.Command{
	Use:   "run FUNCTION [ARGUMENT...]",
	Short: "Run a table function over every fragment of a table.",
	Example: `udtf run scale b 2.5::float64 --table numbers
udtf run row_copier a 3::int32 --table numbers --device gpu
udtf run add a c --table numbers --output csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		descriptor, ok := table_valued_functions.FunctionMap()[args[0]]
		if !ok {
			return fmt.Errorf("unknown table function '%s', see 'udtf functions'", args[0])
		}

		cfg, err := readConfig()
		if err != nil {
			return err
		}
		deviceName := cfg.Execution.Device
		if runDevice != "" {
			deviceName = runDevice
		}
		deviceType, err := device.ParseType(deviceName)
		if err != nil {
			return err
		}

		tableConfig, err := cfg.GetTableConfig(runTable)
		if err != nil {
			return fmt.Errorf("couldn't find table '%s' in configuration: %w", runTable, err)
		}
		allocator := memory.NewGoAllocator()
		table, err := storage.LoadTable(allocator, tableConfig)
		if err != nil {
			return fmt.Errorf("couldn't load table: %w", err)
		}
		defer table.Release()

		inputs := make([]physical.Expression, len(args)-1)
		for i, arg := range args[1:] {
			inputs[i], err = parseArgument(table.Name, table.Schema, arg)
			if err != nil {
				return fmt.Errorf("couldn't parse argument %d: %w", i, err)
			}
		}
		var multiplier *float64
		if cmd.Flags().Changed("multiplier") {
			multiplier = physical.RowMultiplier(runMultiplier)
		}
		unit, err := descriptor.ExecutionUnit(inputs, multiplier)
		if err != nil {
			return fmt.Errorf("invalid table function call: %w", err)
		}
		if runExplain {
			spew.Fdump(os.Stdout, unit)
			return nil
		}

		outSchema, err := tablefunc.ResultSchema(unit)
		if err != nil {
			return err
		}
		node := &nodes.TableFunction{
			OutSchema: outSchema,
			Source: execution.NodeWithMeta{
				Node:   &nodes.Scan{Table: table},
				Schema: table.Schema,
			},
			SourceName: table.Name,
			Unit:       unit,
			Function:   descriptor.Function,
			Device:     deviceType,
			Options: []tablefunc.Option{
				tablefunc.WithExecutionWidth(cfg.Execution),
				tablefunc.WithStrictGPUOutputRowCount(cfg.Execution.StrictGPUOutputRowCount),
			},
		}
		if deviceType == device.GPU {
			if !device.GPUAvailable() {
				return tablefunc.ErrGPUUnavailable
			}
			gpu, err := device.NewGPU(0)
			if err != nil {
				return fmt.Errorf("couldn't initialize gpu: %w", err)
			}
			node.GPU = gpu
		}

		format, err := formats.NewFormat(runOutput, os.Stdout)
		if err != nil {
			return err
		}
		format.SetSchema(outSchema)
		if err := node.Run(execution.Context{Context: ctx, Allocator: allocator}, func(produceCtx execution.ProduceContext, record execution.Record) error {
			return formats.WriteRecord(format, record.Record)
		}); err != nil {
			return err
		}
		return format.Close()
	},
}

func init() {
	runCmd.Flags().StringVar(&runTable, "table", "", "Configured table to read the column arguments from.")
	runCmd.Flags().StringVar(&runDevice, "device", "", "Device to execute on: cpu or gpu. Overrides the configuration.")
	runCmd.Flags().Float64Var(&runMultiplier, "multiplier", 0, "Output row multiplier. Defaults to the function's own sizing.")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "table", "Output format: table, csv or json.")
	runCmd.Flags().BoolVar(&runExplain, "explain", false, "Print the execution unit instead of running it.")
	runCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(runCmd)
}
