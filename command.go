package inputnode

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// Control message type tags of wire format v1.
const (
	typeUpdateTarget = "updateTarget"
	typeUDPPing      = "udpPing"
)

// portBlock is the size of the port range assigned to one area. Rebased
// targets keep the flow's port offset within its block.
const portBlock = 10000

var (
	ErrUnknownCommand = errors.New("unknown control command type")
	ErrInvalidTarget  = errors.New("updateTarget with unusable target address")
	ErrInvalidReply   = errors.New("udpPing with unusable reply address")
)

// timeNow is swapped out in tests. Ping replies carry the wall clock, not
// the monotonic one, so peers can relate readings across hosts.
var timeNow = time.Now

// Command is one decoded control datagram.
type Command interface {
	isCommand()
}

// SetTarget redirects all subsequent data messages to Addr.
type SetTarget struct {
	Addr netip.AddrPort
}

// Ping requests a timestamp ack. A zero ReplyTo sends the ack back to the
// datagram's source address.
type Ping struct {
	ReplyTo netip.AddrPort
}

func (SetTarget) isCommand() {}
func (Ping) isCommand()      {}

// controlEnvelope is the JSON shape shared by all v1 control commands.
type controlEnvelope struct {
	Type           string  `json:"type"`
	Target         string  `json:"target,omitempty"`
	TargetPort     *uint16 `json:"target_port,omitempty"`
	TargetPortBase *uint16 `json:"target_port_base,omitempty"`
	ReplyTo        string  `json:"replyTo,omitempty"`
}

// Decoder turns inbound datagrams into Commands. It is constructed with
// the node's initial target port so rebased updateTarget commands preserve
// that port's offset within its area block.
type Decoder struct {
	portOffset uint16
}

func NewDecoder(initialTargetPort uint16) *Decoder {
	return &Decoder{portOffset: initialTargetPort % portBlock}
}

// Decode parses one control datagram. A malformed datagram yields an error
// and must be discarded by the caller; decoding never mutates any state.
func (d *Decoder) Decode(data []byte) (Command, error) {
	var env controlEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("control datagram is not valid JSON: %w", err)
	}

	switch env.Type {
	case typeUpdateTarget:
		return d.decodeSetTarget(env)
	case typeUDPPing:
		return decodePing(env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
}

func (d *Decoder) decodeSetTarget(env controlEnvelope) (Command, error) {
	host, err := netip.ParseAddr(env.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: host %q: %v", ErrInvalidTarget, env.Target, err)
	}

	var port int
	switch {
	case env.TargetPort != nil:
		port = int(*env.TargetPort)
	case env.TargetPortBase != nil:
		port = int(*env.TargetPortBase) + int(d.portOffset)
	default:
		return nil, fmt.Errorf("%w: neither target_port nor target_port_base given", ErrInvalidTarget)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidTarget, port)
	}

	return SetTarget{Addr: netip.AddrPortFrom(host, uint16(port))}, nil
}

func decodePing(env controlEnvelope) (Command, error) {
	if env.ReplyTo == "" {
		return Ping{}, nil
	}
	replyTo, err := netip.ParseAddrPort(env.ReplyTo)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidReply, env.ReplyTo, err)
	}
	return Ping{ReplyTo: replyTo}, nil
}

// EncodeSetTarget builds a v1 retarget command with an absolute port.
func EncodeSetTarget(addr netip.AddrPort) []byte {
	port := addr.Port()
	b, _ := json.Marshal(controlEnvelope{
		Type:       typeUpdateTarget,
		Target:     addr.Addr().String(),
		TargetPort: &port,
	})
	return b
}

// EncodeSetTargetBase builds a v1 retarget command that moves the flow to
// another area block while keeping its port offset.
func EncodeSetTargetBase(host netip.Addr, portBase uint16) []byte {
	b, _ := json.Marshal(controlEnvelope{
		Type:           typeUpdateTarget,
		Target:         host.String(),
		TargetPortBase: &portBase,
	})
	return b
}

// EncodePing builds a v1 ping. With a zero replyTo the receiving node acks
// to the datagram's source address.
func EncodePing(replyTo netip.AddrPort) []byte {
	env := controlEnvelope{Type: typeUDPPing}
	if replyTo.IsValid() {
		env.ReplyTo = replyTo.String()
	}
	b, _ := json.Marshal(env)
	return b
}

// targetAck is the v1 retarget acknowledgment.
type targetAck struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

func encodeTargetAck() []byte {
	b, _ := json.Marshal(targetAck{Type: typeUpdateTarget, Success: true})
	return b
}

// DecodeTargetAck reports whether the node accepted a retarget command.
func DecodeTargetAck(data []byte) (bool, error) {
	var ack targetAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return false, fmt.Errorf("retarget ack is not valid JSON: %w", err)
	}
	if ack.Type != typeUpdateTarget {
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, ack.Type)
	}
	return ack.Success, nil
}

// pingReplySize is the fixed length of a v1 ping ack: one big-endian
// uint64 holding microseconds since the Unix epoch.
const pingReplySize = 8

var ErrPingReplySize = errors.New("ping reply must be exactly 8 bytes")

// EncodePingReply builds the timestamp ack sent in response to a ping.
func EncodePingReply(t time.Time) []byte {
	buf := make([]byte, pingReplySize)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixMicro()))
	return buf
}

// DecodePingReply extracts the replying node's wall clock from a ping ack.
func DecodePingReply(data []byte) (time.Time, error) {
	if len(data) != pingReplySize {
		return time.Time{}, ErrPingReplySize
	}
	return time.UnixMicro(int64(binary.BigEndian.Uint64(data))), nil
}
