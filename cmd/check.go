package cmd

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/device-patrol/internal/model"
)

var flagCheckAudio bool

var checkCmd = &cobra.Command{
	Use:   "check <device>",
	Short: "Check whether a single capture device is in use",
	Long: `Probe one capture device and print its usage report as JSON.

A path such as /dev/video0 is probed as a V4L2 video device. ALSA names
(hw:1,0, plughw:CARD=PCH,DEV=0, default) and /dev/snd/ nodes are probed as
microphones; --audio forces the audio probe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		classifier := newClassifier(nil)

		start := time.Now()
		var report model.Report
		if flagCheckAudio || isAudioName(device) {
			report = model.NewReport(device, model.KindAudio, classifier.ClassifyAudio(cmd.Context(), device), start)
		} else {
			report = model.NewReport(device, model.KindVideo, classifier.Classify(cmd.Context(), device, cfg.IgnoreApps), start)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// isAudioName reports whether device looks like an ALSA name or node rather
// than a video device path.
func isAudioName(device string) bool {
	return !strings.HasPrefix(device, "/") || strings.HasPrefix(device, "/dev/snd/")
}

func init() {
	checkCmd.Flags().BoolVar(&flagCheckAudio, "audio", false, "probe the device as an ALSA microphone")
	rootCmd.AddCommand(checkCmd)
}
