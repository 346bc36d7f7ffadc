package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// holdsResult is the JSON output of the holds command.
type holdsResult struct {
	Device  string `json:"device"`
	Process string `json:"process"`
	PID     int32  `json:"pid,omitempty"`
	Held    bool   `json:"held"`
}

var flagHoldsPID int32

var holdsCmd = &cobra.Command{
	Use:   "holds <device> [process]",
	Short: "Check whether a process has a device open",
	Long: `Scan /proc/<pid>/fd of every process with the given name and report
whether any of them has the device open.

The process name matches the kernel comm name or the executable's base
name. Use --pid to inspect a single process instead.

This is what the classifier does for each ignored app when a device is
busy. Descriptor tables of other users' processes are only readable as
root.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := holdsResult{Device: args[0]}
		resolver := newResolver(nil)

		var err error
		switch {
		case flagHoldsPID > 0:
			res.PID = flagHoldsPID
			res.Held, err = resolver.PIDHoldsDevice(flagHoldsPID, res.Device)
		case len(args) == 2:
			res.Process = args[1]
			res.Held, err = resolver.HoldsDevice(cmd.Context(), res.Device, res.Process)
		default:
			return fmt.Errorf("either a process name or --pid is required")
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	holdsCmd.Flags().Int32Var(&flagHoldsPID, "pid", 0, "inspect this process id instead of looking up a name")
	rootCmd.AddCommand(holdsCmd)
}
