package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
	"github.com/ironsheep/spore-measure-mcp/internal/session"
	"github.com/ironsheep/spore-measure-mcp/internal/stats"
)

var (
	statsCalibration string
	statsCSV         string
	statsHistogram   string
	statsBins        int
	statsJSON        bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <blobs.json>",
	Short: "Summarise a saved measurement session",
	Long: `Summarise the blobs in a file written by session_save. Lengths are in
micrometres when a calibration is given with --calibration or one is active,
otherwise in pixels.`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsCalibration, "calibration", "", "calibration name (default: the active one)")
	statsCmd.Flags().StringVar(&statsCSV, "csv", "", "also write per-blob lengths to this CSV file")
	statsCmd.Flags().StringVar(&statsHistogram, "histogram", "", "also write a PNG histogram to this file")
	statsCmd.Flags().IntVar(&statsBins, "bins", 10, "histogram bins")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	blobs, err := readBlobsFile(args[0])
	if err != nil {
		return err
	}

	reg, st, err := openRegistry()
	if err != nil {
		return err
	}
	defer st.Close()

	ratio, unit, name := 1.0, stats.UnitPixels, ""
	if statsCalibration != "" {
		c, ok := reg.Get(statsCalibration)
		if !ok {
			return fmt.Errorf("calibration not found: %s", statsCalibration)
		}
		ratio, unit, name = c.Value, stats.UnitMicrometres, c.Name
	} else if c, ok := reg.Active(); ok {
		ratio, unit, name = c.Value, stats.UnitMicrometres, c.Name
	}

	summary := stats.Compute(blobs, ratio)
	summary.Unit = unit
	summary.Calibration = name

	if statsCSV != "" {
		if err := writeFile(statsCSV, func(f *os.File) error {
			return session.WriteCSV(f, blobs, ratio, unit)
		}); err != nil {
			return err
		}
	}
	if statsHistogram != "" {
		if err := writeFile(statsHistogram, func(f *os.File) error {
			return stats.WriteHistogram(f, blobs, ratio, stats.HistogramOptions{Bins: statsBins, Unit: unit})
		}); err != nil {
			return err
		}
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(summary)
	return nil
}

func printSummary(s stats.Summary) {
	fmt.Println("Spore Measurements")
	fmt.Println("==================")
	if s.Calibration != "" {
		fmt.Printf("Calibration: %s\n", s.Calibration)
	}
	fmt.Printf("Count: %d\n", s.Count)
	if s.Empty() {
		return
	}
	fmt.Println()
	fmt.Printf("%-8s %10s %10s %10s %10s %10s\n", "Axis", "Mean", "Min", "Max", "Range", "StdDev")
	fmt.Printf("%-8s %10.3f %10.3f %10.3f %10.3f %10.3f\n", "A", s.MeanA, s.MinA, s.MaxA, s.RangeA, s.StdDevA)
	fmt.Printf("%-8s %10.3f %10.3f %10.3f %10.3f %10.3f\n", "B", s.MeanB, s.MinB, s.MaxB, s.RangeB, s.StdDevB)
	fmt.Printf("\nLengths in %s\n", s.Unit)
}

func readBlobsFile(path string) ([]geometry.Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return session.DecodeBlobs(f)
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
