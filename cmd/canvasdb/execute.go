package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpattn/canvasdb/internal/domain"
)

type executeOptions struct {
	file     string
	canvasID int64
	view     string
}

// canvasFile is the on-disk form of a graph, as exported by the editor.
type canvasFile struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

func newExecuteCmd(opts *rootOptions) *cobra.Command {
	eo := &executeOptions{}

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run a canvas and print its rows as JSON",
		Example: `  # Preview a graph file without saving anything
  canvasdb execute --file canvas.json

  # Run a stored canvas and save the result as a view
  canvasdb execute --canvas 3 --view restock`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (eo.file == "") == (eo.canvasID == 0) {
				return errors.New("exactly one of --file or --canvas is required")
			}
			a, err := newApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			var out any
			if eo.canvasID != 0 {
				view, err := a.runner.Run(cmd.Context(), eo.canvasID, eo.view)
				if err != nil {
					return err
				}
				out = view
			} else {
				graph, err := readCanvasFile(eo.file)
				if err != nil {
					return err
				}
				result, err := a.runner.Preview(cmd.Context(), graph.Nodes, graph.Edges)
				if err != nil {
					return err
				}
				if result == nil {
					result = domain.ExecutionResult{}
				}
				out = result
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&eo.file, "file", "f", "", "canvas JSON file with nodes and edges")
	cmd.Flags().Int64Var(&eo.canvasID, "canvas", 0, "id of a stored canvas to run")
	cmd.Flags().StringVar(&eo.view, "view", "", "view name when running a stored canvas")
	return cmd
}

func readCanvasFile(path string) (canvasFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return canvasFile{}, fmt.Errorf("read canvas file: %w", err)
	}
	var graph canvasFile
	if err := json.Unmarshal(raw, &graph); err != nil {
		return canvasFile{}, fmt.Errorf("parse canvas file %s: %w", path, err)
	}
	return graph, nil
}
