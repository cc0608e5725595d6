package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"iota-cli/internal/ioerr"
	"iota-cli/internal/orchestrator"
	"iota-cli/internal/progress"
)

var (
	upgImage       string
	upgSkipVerify  bool
	upgVerifyKey   string
	upgStreamCount int
	upgInPlace     bool
	upgNoProgress  bool
	upgKey         string
	upgDBus        bool
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Decrypt, verify, and install a firmware package",
	Long: `upgrade reads a signed, encrypted firmware package, verifies its
RSA signature, decrypts its AES-128-GCM payload in bounded-memory chunks,
and extracts the resulting archive into the inactive A/B slot (or, with
--in-place, over the currently running root).

The new slot is not activated by this command; run "checkout" afterward
to flip the bootloader's next-boot slot.`,
	RunE: runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)

	upgradeCmd.Flags().StringVarP(&upgImage, "image", "i", "", "path to the firmware package")
	upgradeCmd.Flags().BoolVar(&upgSkipVerify, "skip-verify", false, "skip RSA signature verification (testing only)")
	upgradeCmd.Flags().StringVar(&upgVerifyKey, "verify", "", "path to the RSA public key (PEM) used to verify the package signature")
	upgradeCmd.Flags().IntVarP(&upgStreamCount, "stream-count", "s", 4096, "bytes per decrypt/verify chunk")
	upgradeCmd.Flags().BoolVar(&upgInPlace, "in-place", false, "install over the running root instead of the inactive slot")
	upgradeCmd.Flags().BoolVarP(&upgNoProgress, "no-progress", "q", false, "suppress the terminal progress bar")
	upgradeCmd.Flags().StringVarP(&upgKey, "key", "k", "", "AES-128 key as 32 hex characters (default: built-in device key)")
	upgradeCmd.Flags().BoolVar(&upgDBus, "dbus-progress", false, "also broadcast progress over the system D-Bus")

	_ = upgradeCmd.MarkFlagRequired("image")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	if upgStreamCount <= 0 {
		return fmt.Errorf("upgrade: %w: --stream-count must be positive", ioerr.ErrInvalid)
	}

	term := progress.NewTerminal(upgNoProgress)
	defer term.Finish()

	sinks := []progress.Sink{term}
	if upgDBus {
		d, err := progress.NewDBus()
		if err != nil {
			return fmt.Errorf("connecting to system D-Bus: %w", err)
		}
		defer d.Close()
		sinks = append(sinks, d)
	}

	req := orchestrator.UpgradeRequest{
		ImagePath:   upgImage,
		KeyHex:      upgKey,
		VerifyKey:   upgVerifyKey,
		SkipVerify:  upgSkipVerify,
		StreamCount: upgStreamCount,
		InPlace:     upgInPlace,
		Sink:        progress.NewMultiSink(sinks...),
	}

	return orchestrator.Upgrade(cmd.Context(), req)
}
