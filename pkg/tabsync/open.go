package tabsync

import (
	"context"

	"github.com/zfogg/dormdesk/pkg/logger"
)

// Options selects and configures a bus backend
type Options struct {
	// Mode is "file", "redis" or "none"
	Mode      string
	Channel   string
	Dir       string
	RedisAddr string
}

// Open returns the configured bus. A backend that cannot be set up degrades
// to Nop, so sync problems never stop the client from working.
func Open(ctx context.Context, opts Options) Bus {
	switch opts.Mode {
	case "file":
		bus, err := NewFile(opts.Dir, opts.Channel)
		if err != nil {
			logger.Warn("Session sync disabled", "mode", opts.Mode, "error", err)
			return Nop{}
		}
		return bus
	case "redis":
		bus, err := NewRedis(ctx, opts.RedisAddr, opts.Channel)
		if err != nil {
			logger.Warn("Session sync disabled", "mode", opts.Mode, "addr", opts.RedisAddr, "error", err)
			return Nop{}
		}
		return bus
	case "none", "":
		return Nop{}
	default:
		logger.Warn("Unknown session sync mode, sync disabled", "mode", opts.Mode)
		return Nop{}
	}
}
