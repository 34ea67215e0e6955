package inputnode

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"time"
)

// ControlListener serves the node's inbound command socket. It applies
// updateTarget commands to the shared target store and answers udpPing
// commands with a timestamp ack.
//
// One listener owns one socket; Run must not be called concurrently.
type ControlListener struct {
	conn         NetworkConn
	acks         NetworkConn // nil when outbound acks are disabled
	store        *TargetStore
	dec          *Decoder
	pollInterval time.Duration
}

func NewControlListener(conn NetworkConn, acks NetworkConn, store *TargetStore, dec *Decoder, pollInterval time.Duration) *ControlListener {
	return &ControlListener{
		conn:         conn,
		acks:         acks,
		store:        store,
		dec:          dec,
		pollInterval: pollInterval,
	}
}

// Run reads control datagrams until ctx is cancelled or the socket is
// closed. Reads are bounded by the poll interval so cancellation is
// observed within one interval. Malformed datagrams are logged and
// dropped; only socket failures end the loop.
func (l *ControlListener) Run(ctx context.Context) error {
	buffer := make([]byte, maxDatagram)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, remoteAddr, err := l.conn.ReadFromUDPAddrPort(buffer, l.pollInterval)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("cannot read control datagram", slog.Any("error", err))
			time.Sleep(l.pollInterval)
			continue
		}
		if n == 0 {
			continue
		}

		slog.Debug("RcvControl", slog.Any("from", remoteAddr), slog.Int("n", n))
		l.apply(buffer[:n], remoteAddr)
	}
}

// apply decodes one datagram and acts on it. Anything undecodable is
// dropped so a single bad sender cannot take the control plane down.
func (l *ControlListener) apply(data []byte, remoteAddr netip.AddrPort) {
	cmd, err := l.dec.Decode(data)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			slog.Debug("ignoring unknown control command", slog.Any("error", err))
		} else {
			slog.Warn("discarding malformed control datagram",
				slog.Any("error", err),
				slog.Any("from", remoteAddr))
		}
		return
	}

	switch c := cmd.(type) {
	case SetTarget:
		l.store.Store(c.Addr)
		slog.Info("target updated",
			slog.Any("target", c.Addr),
			slog.Any("from", remoteAddr))
		l.ackRetarget(remoteAddr)
	case Ping:
		l.ackPing(c, remoteAddr)
	default:
		slog.Warn("decoded control command has no handler")
	}
}

// ackRetarget confirms a target update. The ack is fire-and-forget UDP, so
// it is repeated a fixed number of times to survive loss.
func (l *ControlListener) ackRetarget(dst netip.AddrPort) {
	if l.acks == nil {
		return
	}

	ack := encodeTargetAck()
	for i := 0; i < targetAckRepeat; i++ {
		if _, err := l.acks.WriteToUDPAddrPort(ack, dst); err != nil {
			slog.Error("cannot send retarget ack",
				slog.Any("error", err),
				slog.Any("to", dst))
			return
		}
	}
	slog.Debug("SndTargetAck", slog.Any("to", dst), slog.Int("repeat", targetAckRepeat))
}

// ackPing answers a ping with the current wall clock. Without an explicit
// replyTo the ack goes back to the datagram's source.
func (l *ControlListener) ackPing(cmd Ping, remoteAddr netip.AddrPort) {
	if l.acks == nil {
		slog.Debug("ignoring ping, acks disabled", slog.Any("from", remoteAddr))
		return
	}

	dst := cmd.ReplyTo
	if !dst.IsValid() {
		dst = remoteAddr
	}

	if _, err := l.acks.WriteToUDPAddrPort(EncodePingReply(timeNow()), dst); err != nil {
		slog.Error("cannot send ping reply",
			slog.Any("error", err),
			slog.Any("to", dst))
		return
	}
	slog.Debug("SndPingReply", slog.Any("to", dst))
}
