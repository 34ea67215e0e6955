package inputnode

import (
	"context"
	"log/slog"
	"time"
)

// Emitter periodically sends one data message to whatever target the
// store currently holds. The target is re-read on every tick, so a
// retarget takes effect at the next send without coordination.
type Emitter struct {
	conn     NetworkConn
	store    *TargetStore
	identity Identity
	interval time.Duration
	payload  PayloadFunc
}

func NewEmitter(conn NetworkConn, store *TargetStore, identity Identity, interval time.Duration, payload PayloadFunc) *Emitter {
	if payload == nil {
		payload = RandomReading
	}
	return &Emitter{
		conn:     conn,
		store:    store,
		identity: identity,
		interval: interval,
		payload:  payload,
	}
}

// Run emits one message immediately and then one per interval until ctx
// is cancelled. Send failures are logged and skipped; the schedule keeps
// going.
func (e *Emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.emit()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (e *Emitter) emit() {
	target := e.store.Load()
	data := EncodeDataMessage(e.identity, e.payload())

	n, err := e.conn.WriteToUDPAddrPort(data, target)
	if err != nil {
		slog.Error("cannot send data message",
			slog.Any("error", err),
			slog.Any("target", target))
		return
	}
	slog.Debug("SndData", slog.Any("target", target), slog.Int("n", n))
}
