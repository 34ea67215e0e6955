package inputnode

import (
	"golang.org/x/sys/unix"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"
)

// NetworkConn is the subset of a UDP socket the node needs. Reads are
// bounded by a per-call timeout so loops stay responsive to cancellation;
// tests substitute in-memory implementations.
type NetworkConn interface {
	ReadFromUDPAddrPort(p []byte, timeout time.Duration) (n int, remoteAddr netip.AddrPort, err error)
	WriteToUDPAddrPort(p []byte, remoteAddr netip.AddrPort) (n int, err error)
	Close() error
	LocalAddrPort() netip.AddrPort
}

type UDPNetworkConn struct {
	conn *net.UDPConn
	mu   sync.Mutex
}

func NewUDPNetworkConn(conn *net.UDPConn) *UDPNetworkConn {
	return &UDPNetworkConn{
		conn: conn,
		mu:   sync.Mutex{},
	}
}

// ListenPort binds a UDP socket on all interfaces. Port 0 lets the kernel
// pick a free one; LocalAddrPort reports the effective choice.
func ListenPort(port uint16) (*UDPNetworkConn, error) {
	addr := netip.AddrPortFrom(netip.IPv4Unspecified(), port)
	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, err
	}

	if err := setDF(conn); err != nil {
		slog.Warn("cannot set do-not-fragment", slog.Any("error", err))
	}

	return NewUDPNetworkConn(conn), nil
}

func (c *UDPNetworkConn) ReadFromUDPAddrPort(p []byte, timeout time.Duration) (int, netip.AddrPort, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	err := c.conn.SetReadDeadline(deadline)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}

	return c.conn.ReadFromUDPAddrPort(p)
}

func (c *UDPNetworkConn) WriteToUDPAddrPort(p []byte, remoteAddr netip.AddrPort) (int, error) {
	return c.conn.WriteToUDPAddrPort(p, remoteAddr)
}

func (c *UDPNetworkConn) Close() error {
	return c.conn.Close()
}

func (c *UDPNetworkConn) LocalAddrPort() netip.AddrPort {
	return c.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// based on: https://github.com/quic-go/quic-go/blob/d540f545b0b70217220eb0fbd5278ece436a7a20/sys_conn_df_linux.go#L15
func setDF(conn *net.UDPConn) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var errDFIPv4, errDFIPv6 error
	if err := rawConn.Control(func(fd uintptr) {
		errDFIPv4 = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO)
		errDFIPv6 = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_MTU_DISCOVER, unix.IPV6_PMTUDISC_DO)
	}); err != nil {
		return err
	}

	switch {
	case errDFIPv4 == nil && errDFIPv6 == nil:
		slog.Debug("setting DF for IPv4 and IPv6")
	case errDFIPv4 == nil && errDFIPv6 != nil:
		slog.Debug("setting DF for IPv4 only")
	case errDFIPv4 != nil && errDFIPv6 == nil:
		slog.Debug("setting DF for IPv6 only")
	case errDFIPv4 != nil && errDFIPv6 != nil:
		slog.Warn("setting DF failed for both IPv4 and IPv6")
	}

	return nil
}
