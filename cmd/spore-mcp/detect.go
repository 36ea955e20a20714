package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/spore-measure-mcp/internal/detection"
	"github.com/ironsheep/spore-measure-mcp/internal/imaging"
	"github.com/ironsheep/spore-measure-mcp/internal/session"
)

var (
	detectThreshold int
	detectInvert    bool
	detectBlur      float64
	detectMinArea   int
	detectMaxArea   int
	detectMinCirc   float64
	detectOutput    string
	detectOverlay   string
	detectJSON      bool
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect spores automatically and print their axes",
	Long: `Threshold the image, find connected regions and fit two perpendicular axes
to each one. Flags that are not set fall back to the detection section of
the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	f := detectCmd.Flags()
	f.IntVar(&detectThreshold, "threshold", 0, "grey level separating spores from background (1-255)")
	f.BoolVar(&detectInvert, "invert", false, "spores are brighter than the background")
	f.Float64Var(&detectBlur, "blur", 0, "gaussian blur radius applied before thresholding")
	f.IntVar(&detectMinArea, "min-area", 0, "smallest region kept, in pixels")
	f.IntVar(&detectMaxArea, "max-area", 0, "largest region kept, in pixels (0 = unbounded)")
	f.Float64Var(&detectMinCirc, "min-circularity", 0, "smallest circularity kept (0-1)")
	f.StringVarP(&detectOutput, "output", "o", "", "save the blobs to this file for session_load or stats")
	f.StringVar(&detectOverlay, "overlay", "", "write a PNG overlay of the detected blobs")
	f.BoolVar(&detectJSON, "json", false, "print the candidates as JSON")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params := cfg.GetDetectionParams()
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		if detectThreshold < 1 || detectThreshold > 255 {
			return fmt.Errorf("threshold must be between 1 and 255, got %d", detectThreshold)
		}
		params.Threshold = uint8(detectThreshold)
	}
	if flags.Changed("invert") {
		params.Invert = detectInvert
	}
	if flags.Changed("blur") {
		params.BlurRadius = detectBlur
	}
	if flags.Changed("min-area") {
		params.MinArea = detectMinArea
	}
	if flags.Changed("max-area") {
		params.MaxArea = detectMaxArea
	}
	if flags.Changed("min-circularity") {
		params.MinCircularity = detectMinCirc
	}

	cache := imaging.NewImageCache()
	img, err := cache.Load(args[0])
	if err != nil {
		return err
	}
	candidates, err := detection.Run(img, params)
	if err != nil {
		return err
	}

	sess := session.New()
	blobs := sess.MergeDetected(detection.Blobs(candidates))

	if detectOutput != "" {
		if err := writeFile(detectOutput, func(f *os.File) error { return sess.WriteBlobs(f) }); err != nil {
			return err
		}
	}
	if detectOverlay != "" {
		if err := writeOverlay(detectOverlay, img, sess.Snapshot()); err != nil {
			return err
		}
	}

	if detectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	fmt.Printf("Detected %d spores in %s\n", len(blobs), args[0])
	for i, c := range candidates {
		a, b := blobs[i].Axes()
		fmt.Printf("  %3d  A %8.2fpx  B %8.2fpx  area %6d  circularity %.2f  at (%.1f, %.1f)\n",
			i+1, a, b, c.Area, c.Circularity, c.Centroid.X, c.Centroid.Y)
	}
	return nil
}

func writeOverlay(path string, img image.Image, snap session.Snapshot) error {
	res, err := imaging.RenderOverlay(img, imaging.Scene{Blobs: snap.Blobs}, imaging.OverlayOptions{LabelBlobs: true})
	if err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
