package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "neuroscreen",
	Short: "Cognitive screening and voice-feature assessment server",
	Long: "NeuroScreen scores a five-item cognitive screening battery, runs the trail and " +
		"pattern sub-tests, and forwards voice features to a remote classifier. " +
		"It is a screening aid, not a diagnostic tool.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("root", ".", "Project root containing config/ and assets/")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(predictCmd)
}

// projectRoot returns the --root flag as an absolute path.
func projectRoot(cmd *cobra.Command) (string, error) {
	root, _ := cmd.Flags().GetString("root")
	return filepath.Abs(root)
}

// resolvePath anchors a relative path from the config at the project root.
func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
