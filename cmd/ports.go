package cmd

import (
	"fmt"

	"github.com/jsphweid/simon/midi"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists midi output ports",
	Long:  `Lists midi output ports. Pass a port's number to play --port to hear the notes.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer midi.Close()
		names := midi.OutPortNames()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No midi output ports found")
			return
		}
		for i, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%v: %v\n", i, name)
		}
	},
}
