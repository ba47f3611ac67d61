package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/photo-annotator/internal/annotate"
	"github.com/kozaktomas/photo-annotator/internal/config"
	"github.com/kozaktomas/photo-annotator/internal/detection"
	"github.com/kozaktomas/photo-annotator/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect objects in a local image",
	Long: `Detect the named objects in a local image and print their bounding boxes.

Boxes are reported in pixels of the original image as [[x0,y0],[x1,y1]].
Duplicate boxes closer than the tolerance are merged.

Examples:
  photo-annotator detect photo.jpg --objects cat,dog
  photo-annotator detect photo.jpg --objects "red car" --json
  photo-annotator detect photo.jpg --objects cat --provider openai --tolerance 10`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringSlice("objects", nil, "Objects to detect (comma separated)")
	detectCmd.Flags().Bool("json", false, "Print the result as JSON")
	detectCmd.Flags().String("provider", "", "Detection provider: gemini or openai (overrides DETECTION_PROVIDER)")
	detectCmd.Flags().Int("tolerance", -1, "Pixel tolerance for merging duplicate boxes (overrides DETECTION_TOLERANCE)")
	detectCmd.Flags().Float64("timeout", 0, "Detection timeout in seconds (overrides DETECTION_TIMEOUT)")
	detectCmd.MarkFlagRequired("objects")
}

// detectOutput is the JSON shape printed with --json.
type detectOutput struct {
	Image           string                 `json:"image"`
	Status          annotate.Status        `json:"status"`
	DetectedObjects detection.DetectionSet `json:"detected_objects"`
	Message         string                 `json:"message,omitempty"`
}

// applyDetectFlags overrides configuration with the flags given on the command line.
func applyDetectFlags(cmd *cobra.Command, cfg *config.Config) {
	if provider := mustGetString(cmd, "provider"); provider != "" {
		cfg.Detection.Provider = provider
	}
	if tolerance := mustGetInt(cmd, "tolerance"); tolerance >= 0 {
		cfg.Detection.Tolerance = tolerance
	}
	if timeout := mustGetFloat64(cmd, "timeout"); timeout > 0 {
		cfg.Detection.Timeout = time.Duration(timeout * float64(time.Second))
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	objects := detection.CleanLabels(mustGetStringSlice(cmd, "objects"))
	asJSON := mustGetBool(cmd, "json")

	if len(objects) == 0 {
		return errors.New("at least one object is required")
	}
	if !storage.AllowedFile(imagePath) {
		return fmt.Errorf("unsupported image type: %s", filepath.Ext(imagePath))
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	cfg := config.Load()
	applyDetectFlags(cmd, cfg)

	ctx := context.Background()
	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	img := annotate.Image{Key: storage.SecureFilename(filepath.Base(imagePath)), Data: data}
	res := annotateWithSpinner(ctx, p.orchestrator, img, objects, !asJSON)

	if asJSON {
		out := detectOutput{
			Image:           imagePath,
			Status:          res.Status,
			DetectedObjects: res.Detections,
			Message:         res.Diagnostic,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		printDetections(res)
		printUsage(p.detector)
	}

	if res.Status == annotate.StatusFailure {
		return errors.New(res.Diagnostic)
	}
	return nil
}

// annotateWithSpinner runs the annotation, showing a spinner on stderr while it waits.
func annotateWithSpinner(ctx context.Context, o *annotate.Orchestrator, img annotate.Image, objects []string, show bool) annotate.Result {
	if !show {
		return o.Annotate(ctx, img, objects)
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Detecting objects"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan annotate.Result, 1)
	go func() {
		done <- o.Annotate(ctx, img, objects)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case res := <-done:
			bar.Finish()
			return res
		case <-ticker.C:
			bar.Add(1)
		}
	}
}

func printDetections(res annotate.Result) {
	switch res.Status {
	case annotate.StatusFailure:
		fmt.Printf("Detection failed: %s\n", res.Diagnostic)
		return
	case annotate.StatusEmpty:
		fmt.Printf("No objects detected for: %v\n", res.Requested)
		return
	}

	for _, label := range res.Detections.Labels() {
		boxes := res.Detections[label]
		fmt.Printf("%s: %d box(es)\n", label, len(boxes))
		for _, b := range boxes {
			fmt.Printf("  %s (%dx%d)\n", b, b.Width(), b.Height())
		}
	}
	fmt.Printf("Total: %d object(s)\n", res.Detections.Count())
}
