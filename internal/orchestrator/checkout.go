package orchestrator

import (
	"fmt"
	"os/exec"
	"time"

	"iota-cli/internal/applog"
	"iota-cli/internal/progress"
	"iota-cli/internal/slot"
)

// CheckoutRequest carries every parameter the `checkout` command line
// surface exposes.
type CheckoutRequest struct {
	Script string
	Reboot bool
	Delay  int // seconds; 0 uses the 3-second default
	Force  bool
	Sink   progress.Sink
}

// Checkout runs the slot flip state machine and, if requested, reboots
// after a delay.
func Checkout(req CheckoutRequest) error {
	if req.Sink == nil {
		req.Sink = progress.NewMultiSink()
	}
	delay := req.Delay
	if delay <= 0 {
		delay = 3
	}

	controller := slot.NewController(slot.FwEnv{})
	err := slot.Checkout(controller, slot.CheckoutOptions{Script: req.Script, Force: req.Force})
	if err != nil {
		req.Sink.Error(1, err.Error())
		return err
	}
	req.Sink.Message("next boot slot flipped")

	if req.Reboot {
		applog.Info("rebooting", applog.Duration("delay", time.Duration(delay)*time.Second))
		req.Sink.Message(fmt.Sprintf("rebooting in %ds", delay))
		time.Sleep(time.Duration(delay) * time.Second)
		if err := exec.Command("reboot").Run(); err != nil {
			return err
		}
	}
	return nil
}
