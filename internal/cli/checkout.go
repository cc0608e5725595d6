package cli

import (
	"github.com/spf13/cobra"

	"iota-cli/internal/orchestrator"
	"iota-cli/internal/progress"
)

var (
	coScript string
	coReboot bool
	coDelay  int
	coForce  bool
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Flip the next-boot slot to the one last upgraded",
	Long: `checkout points the bootloader's rootfs_part environment variable
at the currently inactive slot, making it the active slot on next reboot.
It refuses to flip onto a slot that is already mounted unless --force is
given, since that would point the bootloader at the slot it already booted
from.`,
	RunE: runCheckout,
}

func init() {
	rootCmd.AddCommand(checkoutCmd)

	checkoutCmd.Flags().StringVarP(&coScript, "script", "x", "", "script to run after the slot flip succeeds")
	checkoutCmd.Flags().BoolVar(&coReboot, "reboot", false, "reboot the device after flipping the slot")
	checkoutCmd.Flags().IntVar(&coDelay, "delay", 3, "seconds to wait before rebooting")
	checkoutCmd.Flags().BoolVarP(&coForce, "force", "f", false, "flip the slot even if the target is already mounted")
}

func runCheckout(cmd *cobra.Command, args []string) error {
	req := orchestrator.CheckoutRequest{
		Script: coScript,
		Reboot: coReboot,
		Delay:  coDelay,
		Force:  coForce,
		Sink:   progress.NewMultiSink(progress.NewTerminal(false)),
	}
	return orchestrator.Checkout(req)
}
