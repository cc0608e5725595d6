package progress

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"iota-cli/internal/applog"
)

// ObjectPath and Interface identify the upgrade pipeline's D-Bus object on
// the system bus, for out-of-process subscribers (a UI, a fleet-management
// agent) that want progress_changed/message_logged/error_occurred signals
// without parsing the CLI's stderr.
const (
	ObjectPath = dbus.ObjectPath("/com/iota/Upgrade")
	Interface  = "com.iota.Upgrade"
)

// DBus publishes progress, message, and error notifications as signals on
// the system bus. It updates progress_changed only when the integer
// percent for a step changes, the same throttling the Terminal sink
// applies.
type DBus struct {
	conn *dbus.Conn

	mu      sync.Mutex
	lastPct map[string]int
}

// NewDBus connects to the system bus and returns a sink ready to emit
// signals. The caller should call Close when the upgrade completes.
func NewDBus() (*DBus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("progress: connect system bus: %w", err)
	}
	return &DBus{conn: conn, lastPct: map[string]int{}}, nil
}

// Close releases the underlying bus connection.
func (d *DBus) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

func (d *DBus) Progress(step string, current, total int64) {
	pct := percentOf(current, total)

	d.mu.Lock()
	prev, seen := d.lastPct[step]
	if seen && prev == pct {
		d.mu.Unlock()
		return
	}
	d.lastPct[step] = pct
	d.mu.Unlock()

	if err := d.conn.Emit(ObjectPath, Interface+".progress_changed", step, int32(pct), total, current); err != nil {
		applog.Warn("dbus emit failed", applog.String("signal", "progress_changed"), applog.Err(err))
	}
}

func (d *DBus) Message(text string) {
	if err := d.conn.Emit(ObjectPath, Interface+".message_logged", text); err != nil {
		applog.Warn("dbus emit failed", applog.String("signal", "message_logged"), applog.Err(err))
	}
}

func (d *DBus) Error(code int32, text string) {
	if err := d.conn.Emit(ObjectPath, Interface+".error_occurred", code, text); err != nil {
		applog.Warn("dbus emit failed", applog.String("signal", "error_occurred"), applog.Err(err))
	}
}
