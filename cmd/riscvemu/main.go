// Command riscvemu runs a flat RISC-V program image against the
// interpreter in pkg/emulator.
//
// Grounded on the teacher's cmd/interp/main.go (bassosimone/risc32)
// for the fetch-execute driver's -d/-v flag shapes, and on
// oisee-z80-optimizer/cmd/z80opt/main.go for the cobra.Command +
// pflag-backed flag wiring.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bassosimone/risc-v-emu/pkg/emulator"
	"github.com/bassosimone/risc-v-emu/pkg/riscv"
)

func main() {
	log.SetFlags(0)

	var (
		ramPath  string
		ramSize  int
		romSize  int
		xlenFlag int
		verbose  bool
		debug    bool
	)

	runCmd := &cobra.Command{
		Use:   "run PROGRAM",
		Short: "Run a raw RISC-V binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xlen, err := parseXLen(xlenFlag)
			if err != nil {
				return err
			}
			romImage, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("riscvemu: cannot read %s: %w", args[0], err)
			}
			var ramImage []byte
			if ramPath != "" {
				ramImage, err = os.ReadFile(ramPath)
				if err != nil {
					return fmt.Errorf("riscvemu: cannot read %s: %w", ramPath, err)
				}
			}

			emu := emulator.New(xlen, romSize, ramSize)
			emu.InitROM(romImage)
			if ramImage != nil {
				emu.InitRAM(ramImage)
			}
			if verbose || debug {
				emu.Trace = func(pc uint64) {
					log.Printf("riscvemu: pc=0x%x", pc)
					if debug {
						log.Printf("riscvemu: paused...")
						fmt.Scanln()
					}
				}
			}

			if err := emu.Run(); err != nil {
				return err
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&ramPath, "ram", "", "raw binary preloaded into RAM")
	runCmd.Flags().IntVar(&ramSize, "ram-size", 0x5000, "RAM region size in bytes")
	runCmd.Flags().IntVar(&romSize, "rom-size", 0x1000, "ROM region size in bytes")
	runCmd.Flags().IntVar(&xlenFlag, "xlen", 64, "integer register width: 32 or 64")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace every fetch")
	runCmd.Flags().BoolVarP(&debug, "debug", "d", false, "single-step, pausing for Enter between instructions")

	rootCmd := &cobra.Command{
		Use:   "riscvemu",
		Short: "Interpreted RISC-V RV32/RV64 emulator",
	}
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseXLen(v int) (riscv.XLen, error) {
	switch v {
	case 32:
		return riscv.XLEN32, nil
	case 64:
		return riscv.XLEN64, nil
	default:
		return 0, fmt.Errorf("riscvemu: --xlen must be 32 or 64, got %d", v)
	}
}
