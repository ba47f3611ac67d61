package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-annotator",
	Short: "Detect and annotate objects in images using AI",
	Long: `Photo Annotator finds the objects you name in an image using a
multimodal model (Gemini or OpenAI) and returns their bounding boxes.

Results are cached per image and label, so asking again for an object that
was already found does not call the model a second time.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
