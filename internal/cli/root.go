// Package cli реализует roomctl: офлайн-инструменты для анализа фото,
// слияния правок и рисования схем раскладки.
//
// Все команды понимают --verbose (-v) для отладочного лога. Логгер
// передаётся через context.Context.
package cli

import (
	"context"
	"fmt"
	"os"

	"room-studio/internal/common/logging"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion задаёт строку версии; значения приходят из ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute запускает roomctl.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "roomctl",
		Short:        "roomctl analyzes room photos and edits furniture layouts",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(logging.WithLogger(ctx, logging.New(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("roomctl %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newSketchCmd())

	return root
}
