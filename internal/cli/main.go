package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scenereel [script-file|-]",
		Short:        "Turn a text script into a stock-footage video",
		Long:         "Splits a script into scenes on blank lines, finds a Pexels clip for each scene,\ntrims it to the narration length and concatenates the clips into one video.\nReads the script from stdin when no file (or \"-\") is given.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return run(cmd, input)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Persistent so serve shares them.
	root.PersistentFlags().String("config", "", "YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().Int("wpm", 0, "Speaking rate in words per minute (50-300, default 150)")

	// Visible flags
	root.Flags().String("out", "", "Output directory (default \"out\")")

	// Hidden render tuning flags
	root.PersistentFlags().Int("fps", 0, "Output frame rate")
	root.PersistentFlags().Int("width", 0, "Output width (0 fits the largest clip)")
	root.PersistentFlags().Int("height", 0, "Output height (0 fits the largest clip)")
	_ = root.PersistentFlags().MarkHidden("fps")
	_ = root.PersistentFlags().MarkHidden("width")
	_ = root.PersistentFlags().MarkHidden("height")

	root.AddCommand(newServeCmd())
	return root
}
