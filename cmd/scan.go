package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/device-patrol/internal/devices"
	"github.com/timvw/device-patrol/internal/monitor"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Check all capture devices once",
	Long: `Probe every configured capture device once and print a JSON array of
usage reports.

Video devices come from video_devices in the configuration, or are
discovered under /dev when none are configured. The microphone is probed
when microphone_device is set. A device that cannot be probed is reported
with state "error"; it does not stop the scan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		scanner := &monitor.Scanner{
			Classifier:   newClassifier(nil),
			Lister:       devices.NewLister(),
			VideoDevices: cfg.VideoDevices,
			Microphone:   cfg.Microphone,
			IgnoreApps:   cfg.IgnoreApps,
		}

		result, err := scanner.Scan(cmd.Context())
		if err != nil {
			return err
		}

		if len(result.Reports) == 0 {
			fmt.Fprintln(os.Stderr, "no capture devices found")
			fmt.Println("[]")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Reports)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
