package inputnode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"
)

// Identity names the flow a node feeds and the area it runs in. Both are
// stamped into every emitted data message.
type Identity struct {
	Area string
	Flow string
}

// Node is one virtual input: a periodic emitter and a control listener
// sharing a target store. Create it with New, drive it with Run.
type Node struct {
	cfg      Config
	identity Identity
	store    *TargetStore
	listener *ControlListener
	emitter  *Emitter

	inbound NetworkConn
	data    NetworkConn
	acks    NetworkConn // nil when outbound acks are disabled

	closed atomic.Bool
}

type NodeOption struct {
	payload PayloadFunc
}

type NodeFunc func(*NodeOption)

// WithPayloadFunc replaces the simulated sensor reading with a custom
// payload source.
func WithPayloadFunc(payload PayloadFunc) NodeFunc {
	return func(o *NodeOption) {
		o.payload = payload
	}
}

func fillNodeOpts(options ...NodeFunc) *NodeOption {
	nOpts := &NodeOption{
		payload: nil,
	}
	for _, opt := range options {
		opt(nOpts)
	}
	return nOpts
}

// New validates cfg, binds the node's sockets and wires up its components.
// The node does nothing until Run is called. An acks port of 0 disables
// the ack socket; retarget acks and ping replies are then skipped.
func New(cfg Config, options ...NodeFunc) (*Node, error) {
	nOpts := fillNodeOpts(options...)
	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target, err := cfg.Target()
	if err != nil {
		return nil, err
	}

	inbound, err := ListenPort(cfg.InboundPort)
	if err != nil {
		return nil, fmt.Errorf("bind inbound port %d: %w", cfg.InboundPort, err)
	}

	data, err := ListenPort(cfg.OutboundPortData)
	if err != nil {
		inbound.Close()
		return nil, fmt.Errorf("bind data port %d: %w", cfg.OutboundPortData, err)
	}

	var acks NetworkConn
	if cfg.OutboundPortAcks != 0 {
		a, err := ListenPort(cfg.OutboundPortAcks)
		if err != nil {
			inbound.Close()
			data.Close()
			return nil, fmt.Errorf("bind ack port %d: %w", cfg.OutboundPortAcks, err)
		}
		acks = a
	}

	identity := Identity{Area: cfg.Area, Flow: cfg.FlowName}
	store := NewTargetStore(target)
	dec := NewDecoder(cfg.TargetPort)

	n := &Node{
		cfg:      cfg,
		identity: identity,
		store:    store,
		listener: NewControlListener(inbound, acks, store, dec,
			time.Duration(cfg.InboundPollInterval)*time.Millisecond),
		emitter: NewEmitter(data, store, identity,
			time.Duration(cfg.Interval)*time.Millisecond, nOpts.payload),
		inbound: inbound,
		data:    data,
		acks:    acks,
	}

	slog.Info("input node ready",
		slog.String("flow", identity.Flow),
		slog.String("area", identity.Area),
		slog.Any("target", target),
		slog.Any("inbound", inbound.LocalAddrPort()),
		slog.Any("data", data.LocalAddrPort()),
		slog.Bool("acks", acks != nil))

	return n, nil
}

// Run drives the emitter and the control listener until ctx is cancelled
// or one of them fails. Either loop ending stops the other. The node's
// sockets are closed before Run returns; a node cannot be run twice.
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var listenErr, emitErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		listenErr = n.listener.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		emitErr = n.emitter.Run(ctx)
	}()
	wg.Wait()

	return errors.Join(listenErr, emitErr, n.Close())
}

// Target returns the address data messages currently go to.
func (n *Node) Target() netip.AddrPort {
	return n.store.Load()
}

// Identity returns the node's area and flow name.
func (n *Node) Identity() Identity {
	return n.identity
}

// Close releases the node's sockets. It is safe to call more than once
// and to call concurrently with Run; a closed socket ends the loops.
func (n *Node) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}

	errInbound := n.inbound.Close()
	errData := n.data.Close()
	var errAcks error
	if n.acks != nil {
		errAcks = n.acks.Close()
	}

	return errors.Join(errInbound, errData, errAcks)
}
