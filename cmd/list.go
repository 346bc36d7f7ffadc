package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/device-patrol/internal/devices"
	"github.com/timvw/device-patrol/internal/probe"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidate capture devices",
	Long: `List video capture candidates (/dev/video*) and ALSA capture devices.

Each line is a device that can be passed to check, followed by a tab and
its description: card, driver and bus for video nodes, the ALSA
description for audio devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := devices.NewLister()

		video, err := l.Video()
		if err != nil {
			return fmt.Errorf("failed to list video devices: %w", err)
		}
		prober := probe.New()
		for _, v := range video {
			caps, err := prober.Identify(v)
			if err != nil {
				if flagVerbose {
					fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				}
				fmt.Println(v)
				continue
			}
			fmt.Printf("%s\t%s\n", v, caps)
		}

		audio, err := l.Audio()
		if err != nil {
			return fmt.Errorf("failed to list audio devices: %w", err)
		}
		for _, a := range audio {
			desc := a.Description
			if a.ID != "" {
				desc = fmt.Sprintf("%s (%s)", desc, a.ID)
			}
			fmt.Printf("%s\t%s\n", a.Name, desc)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
