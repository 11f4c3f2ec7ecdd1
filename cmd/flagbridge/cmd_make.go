package main

import (
	"github.com/rendis/flagbridge/pkg/datatype"
	"github.com/spf13/cobra"
)

func newMakeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "make",
		Short: "Print context fragments for records",
	}
	cmd.AddCommand(newMakeConversionCmd(a), newMakeCustomDataCmd(a))
	return cmd
}

func newMakeConversionCmd(a *app) *cobra.Command {
	var (
		goalID  int
		revenue float64
		pretty  bool
	)

	cmd := &cobra.Command{
		Use:     "conversion",
		Short:   "Print a {\"conversion\": {...}} context fragment",
		Example: "  flagbridge make conversion --goal-id 12 --revenue 9.99",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := datatype.WithConversion(nil, datatype.ConversionParams{GoalID: goalID, Revenue: revenue})
			return writeJSON(cmd.OutOrStdout(), c, a.cfg.Pretty || pretty)
		},
	}

	f := cmd.Flags()
	f.IntVar(&goalID, "goal-id", 0, "goal identifier (required)")
	f.Float64Var(&revenue, "revenue", 0, "revenue amount")
	f.BoolVar(&pretty, "pretty", false, "indent JSON output")
	_ = cmd.MarkFlagRequired("goal-id")
	return cmd
}

func newMakeCustomDataCmd(a *app) *cobra.Command {
	var (
		index  int
		pretty bool
	)

	cmd := &cobra.Command{
		Use:     "custom-data [VALUE...]",
		Short:   "Print a {\"customData\": {...}} context fragment",
		Example: "  flagbridge make custom-data --index 3 vip beta",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := datatype.WithCustomData(nil, index, args...)
			return writeJSON(cmd.OutOrStdout(), c, a.cfg.Pretty || pretty)
		},
	}

	f := cmd.Flags()
	f.IntVar(&index, "index", 0, "custom data index (required)")
	f.BoolVar(&pretty, "pretty", false, "indent JSON output")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}
