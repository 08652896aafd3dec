package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"davisboard/internal/exporter"
	"davisboard/internal/importer"
	"davisboard/internal/model"
	"davisboard/internal/spreads"
	"davisboard/internal/table"
)

func newMonthsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "months FILE",
		Short: "List month columns detected in a data file, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := importer.LoadFile(args[0], model.WidgetType(root.widget))
			if err != nil {
				return err
			}
			ranked := table.ResolveMonthColumns(loaded.Rows)
			out := cmd.OutOrStdout()
			if len(ranked) == 0 {
				fmt.Fprintln(out, "no month columns found")
				return nil
			}
			for _, c := range ranked {
				fmt.Fprintf(out, "%-10s %s\n", c.FullKey, c.Label())
			}
			def := table.NewState(ranked).Months
			names := make([]string, 0, len(def))
			for _, m := range def {
				names = append(names, m.String())
			}
			fmt.Fprintf(out, "default selection: %s\n", strings.Join(names, ", "))
			return nil
		},
	}
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	var vo viewOptions
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render the month-over-month table in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := importer.LoadFile(args[0], model.WidgetType(root.widget))
			if err != nil {
				return err
			}
			view, err := buildView(loaded, root, &vo)
			if err != nil {
				return err
			}
			return renderView(cmd.OutOrStdout(), view)
		},
	}
	vo.bind(cmd)
	return cmd
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		vo     viewOptions
		output string
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export the rendered table or spreads matrix to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, root, &vo, args[0], output)
		},
	}
	vo.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output .xlsx path (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, vo *viewOptions, path, output string) error {
	loaded, err := importer.LoadFile(path, model.WidgetType(root.widget))
	if err != nil {
		return err
	}

	exp := exporter.NewExporter()
	opts := exporter.ExportOptions{
		Progress: func(p exporter.ProgressEvent) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%3d%% %s", p.Percent, p.Stage)
		},
	}

	var file *excelize.File
	switch loaded.Widget {
	case model.WidgetMarketSpreads:
		file, err = exp.ExportSpreads(spreads.Build(loaded.Rows, model.Settings{}), opts)
	default:
		var view table.View
		view, err = buildView(loaded, root, vo)
		if err != nil {
			return err
		}
		file, err = exp.ExportTable(view, opts)
	}
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintln(cmd.ErrOrStderr())
	if err := file.SaveAs(output); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n", output)
	return nil
}

func newSpreadsCmd(root *rootOptions) *cobra.Command {
	var png string
	cmd := &cobra.Command{
		Use:   "spreads FILE",
		Short: "Show the market spreads matrix, optionally writing a heatmap PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			widget := model.WidgetType(root.widget)
			if widget == "" {
				widget = model.WidgetMarketSpreads
			}
			loaded, err := importer.LoadFile(args[0], widget)
			if err != nil {
				return err
			}
			m := spreads.Build(loaded.Rows, model.Settings{})
			if err := renderSpreads(cmd.OutOrStdout(), m); err != nil {
				return err
			}
			if png == "" {
				return nil
			}

			f, err := os.Create(png)
			if err != nil {
				return err
			}
			if err := spreads.RenderHeatmap(f, m, spreads.HeatmapSize); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&png, "png", "", "Write the intensity heatmap to this PNG file")
	return cmd
}
