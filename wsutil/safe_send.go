package wsutil

import "log/slog"

// SafeSend sends data to a client channel without blocking and without panicking if the
// channel has already been closed by the hub. Dropped messages are logged at debug level.
func SafeSend(ch chan []byte, data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send on closed channel", "tag", "wsutil", "recovered", r)
			sent = false
		}
	}()
	select {
	case ch <- data:
		return true
	default:
		slog.Debug("send buffer full, message dropped", "tag", "wsutil", "bytes", len(data))
		return false
	}
}
