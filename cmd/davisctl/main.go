// Command davisctl 离线查看与导出数据文件（.json / .xlsx），不依赖服务端
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"davisboard/internal/logging"
)

type rootOptions struct {
	widget      string
	quarterYear int
	logLevel    string
	myMills     []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "davisctl",
		Short:         "Inspect, render and export Davis widget data files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetLogger(logging.NewTextLogger(cmd.ErrOrStderr(), opts.logLevel))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.widget, "widget", "", "Widget type: month_over_month | market_spreads (default: detect)")
	cmd.PersistentFlags().IntVar(&opts.quarterYear, "quarter-year", 2025, "Year used by quarter aggregate fields (q1_<year>)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug | info | warn | error")
	cmd.PersistentFlags().StringSliceVar(&opts.myMills, "my-mills", nil, "Mill names kept by --only-my-mills")

	cmd.AddCommand(
		newMonthsCmd(opts),
		newRenderCmd(opts),
		newExportCmd(opts),
		newSpreadsCmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
