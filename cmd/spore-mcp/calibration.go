package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
)

var (
	calOverwrite bool
	calActivate  bool
	calOutput    string
)

var calibrationCmd = &cobra.Command{
	Use:     "calibration",
	Aliases: []string{"cal"},
	Short:   "Manage stored calibrations",
}

var calListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calibrations; the active one is marked with *",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, st, err := openRegistry()
		if err != nil {
			return err
		}
		defer st.Close()

		items := reg.List()
		if len(items) == 0 {
			fmt.Println("No calibrations")
			return nil
		}
		active, _ := reg.Active()
		for _, c := range items {
			marker := " "
			if c.Name == active.Name {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, c)
		}
		return nil
	},
}

var calAddCmd = &cobra.Command{
	Use:   "add <name> <px-per-um>",
	Short: "Add a calibration by value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid ratio %q: %w", args[1], err)
		}
		reg, st, err := openRegistry()
		if err != nil {
			return err
		}
		defer st.Close()

		c := calibration.Calibration{Name: args[0], Value: calibration.RoundRatio(value)}
		if err := reg.Add(c, calOverwrite); err != nil {
			return err
		}
		if calActivate {
			if err := reg.SetActive(c.Name); err != nil {
				return err
			}
		}
		fmt.Printf("Added %s\n", c)
		return nil
	},
}

var calRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a calibration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, st, err := openRegistry()
		if err != nil {
			return err
		}
		defer st.Close()
		return reg.Remove(args[0])
	},
}

var calActivateCmd = &cobra.Command{
	Use:   "activate [name]",
	Short: "Select the calibration used for unit conversion; no name selects none",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, st, err := openRegistry()
		if err != nil {
			return err
		}
		defer st.Close()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return reg.SetActive(name)
	},
}

var calImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all calibrations with a JSON array of {name, value}",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		reg, st, err := openRegistry()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := reg.Import(f); err != nil {
			return err
		}
		fmt.Printf("Imported %d calibrations\n", len(reg.List()))
		return nil
	},
}

var calExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all calibrations as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, st, err := openRegistry()
		if err != nil {
			return err
		}
		defer st.Close()

		if calOutput == "" {
			return reg.Export(os.Stdout)
		}
		f, err := os.Create(calOutput)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if err := reg.Export(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var calResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every calibration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, st, err := openRegistry()
		if err != nil {
			return err
		}
		defer st.Close()
		return reg.Reset()
	},
}

func init() {
	calAddCmd.Flags().BoolVar(&calOverwrite, "overwrite", false, "replace an existing calibration with the same name")
	calAddCmd.Flags().BoolVar(&calActivate, "activate", false, "make the new calibration active")
	calExportCmd.Flags().StringVarP(&calOutput, "output", "o", "", "write to file instead of stdout")

	calibrationCmd.AddCommand(calListCmd, calAddCmd, calRemoveCmd, calActivateCmd, calImportCmd, calExportCmd, calResetCmd)
	rootCmd.AddCommand(calibrationCmd)
}
