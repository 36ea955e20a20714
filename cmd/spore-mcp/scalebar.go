package main

import (
	"errors"
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
	"github.com/ironsheep/spore-measure-mcp/internal/imaging"
	"github.com/ironsheep/spore-measure-mcp/internal/ocr"
)

var (
	sbRegion   []int
	sbLanguage string
	sbSaveAs   string
)

var scalebarCmd = &cobra.Command{
	Use:   "scalebar <image>",
	Short: "Read an embedded scale bar and derive px/µm",
	Long: `OCR the scale bar label (e.g. "10 µm") in the image, or in --region, and
measure the bar next to it. With --save-as the ratio is stored as a new
calibration. Requires a build with tesseract (cgo on linux).`,
	Args: cobra.ExactArgs(1),
	RunE: runScalebar,
}

func init() {
	scalebarCmd.Flags().IntSliceVar(&sbRegion, "region", nil, "x1,y1,x2,y2 of the area holding the scale bar")
	scalebarCmd.Flags().StringVar(&sbLanguage, "lang", "", "tesseract language (default from config, else eng)")
	scalebarCmd.Flags().StringVar(&sbSaveAs, "save-as", "", "store the result as a calibration with this name")
	rootCmd.AddCommand(scalebarCmd)
}

func runScalebar(cmd *cobra.Command, args []string) error {
	var region image.Rectangle
	switch len(sbRegion) {
	case 0:
	case 4:
		region = image.Rect(sbRegion[0], sbRegion[1], sbRegion[2], sbRegion[3])
	default:
		return errors.New("--region takes four values: x1,y1,x2,y2")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lang := sbLanguage
	if lang == "" {
		lang = cfg.GetOCRLanguage()
	}

	img, err := imaging.NewImageCache().Load(args[0])
	if err != nil {
		return err
	}
	res, err := ocr.ReadScaleBar(img, region, lang)
	if err != nil {
		return err
	}

	fmt.Printf("Label: %q (%g %s = %g µm)\n", res.Raw, res.Label.Value, res.Label.Unit, res.Label.Microns)
	fmt.Printf("Bar:   %d px at y=%d, x %d..%d\n", res.Bar.Pixels, res.Bar.Y, res.Bar.X1, res.Bar.X2)
	fmt.Printf("Ratio: %g px/µm\n", calibration.RoundRatio(res.Ratio))

	if sbSaveAs == "" {
		return nil
	}
	reg, st, err := openRegistry()
	if err != nil {
		return err
	}
	defer st.Close()
	c := calibration.Calibration{Name: sbSaveAs, Value: calibration.RoundRatio(res.Ratio)}
	if err := reg.Add(c, false); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", c)
	return nil
}
