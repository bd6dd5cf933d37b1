package cli

import (
	"room-studio/internal/common/logging"
	"room-studio/internal/room/layout"

	"github.com/spf13/cobra"
)

// newMergeCmd сливает правки с раскладкой так же, как это делает сервис.
func newMergeCmd() *cobra.Command {
	var (
		output   string
		policy   string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "merge LAYOUT EDITS",
		Short: "Apply sparse object edits to a layout document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := layout.ParsePolicy(policy)
			if err != nil {
				return err
			}
			base, err := readLayout(args[0])
			if err != nil {
				return err
			}
			edits, err := readEdits(args[1])
			if err != nil {
				return err
			}

			merged, err := layout.Merge(base, edits)
			if err != nil {
				return err
			}
			if validate {
				if merged, err = layout.Validate(merged, layout.Options{Policy: p}); err != nil {
					return err
				}
			}

			logging.FromContext(cmd.Context()).Debug("merged", "edits", len(edits), "objects", len(merged.Objects))
			return writeJSON(cmd.OutOrStdout(), output, merged)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write merged JSON to file instead of stdout")
	cmd.Flags().StringVar(&policy, "policy", string(layout.PolicyReject), "out-of-range coordinates: reject or clamp")
	cmd.Flags().BoolVar(&validate, "validate", true, "validate the merged layout")

	return cmd
}
