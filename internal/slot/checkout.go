package slot

import (
	"os/exec"

	"iota-cli/internal/applog"
	"iota-cli/internal/ioerr"
)

// CheckoutOptions configures a single checkout invocation.
type CheckoutOptions struct {
	Script string // optional shell hook run after a successful flip
	Force  bool   // flip even if target already matches the mounted root
}

// Checkout runs the state machine in 4.5: select the inactive slot for
// next boot unless it's already the mounted root (and not forced), then
// optionally run a user hook. It does not reboot; callers that passed
// --reboot do that themselves after Checkout returns successfully.
func Checkout(c *Controller, opts CheckoutOptions) error {
	current, err := c.GetActive()
	if err != nil {
		return err
	}
	target := current.Complement()

	mounted, err := c.GetMounted()
	if err == nil && target == mounted && !opts.Force {
		return ioerr.ErrAlreadyActive
	}

	if err := c.SetNextBoot(target); err != nil {
		return err
	}
	applog.Info("checkout flipped next-boot slot", applog.String("target", target.String()))

	if opts.Script != "" {
		if err := runHook(opts.Script); err != nil {
			applog.Warn("checkout hook failed", applog.String("script", opts.Script), applog.Err(err))
		}
	}
	return nil
}

func runHook(path string) error {
	return exec.Command(path).Run()
}
