package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kozaktomas/photo-annotator/internal/config"
	"github.com/kozaktomas/photo-annotator/internal/storage"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated segmentation artifacts",
	Long: `Remove the mask and overlay files written during detection.

With --all the uploaded images are removed as well.

Example:
  photo-annotator clean --all --yes`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().Bool("all", false, "Also remove uploaded images")
	cleanCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func runClean(cmd *cobra.Command, args []string) error {
	all := mustGetBool(cmd, "all")
	skipConfirm := mustGetBool(cmd, "yes")

	cfg := config.Load()

	store, err := storage.NewStore(cfg.Storage.UploadDir, cfg.Storage.ArtifactsDir, nil)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	target := cfg.Storage.ArtifactsDir
	if all {
		target = cfg.Storage.ArtifactsDir + " and " + cfg.Storage.UploadDir
	}
	if !skipConfirm && !confirmAction(fmt.Sprintf("Remove everything in %s? [y/N]: ", target)) {
		fmt.Println("Aborted")
		return nil
	}

	var removed int
	if all {
		removed, err = store.Purge()
	} else {
		removed, err = store.Cleanup()
	}
	if err != nil {
		return fmt.Errorf("cleaning up: %w", err)
	}

	fmt.Printf("Removed %d entries\n", removed)
	return nil
}
