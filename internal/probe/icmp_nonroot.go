// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"syscall"
	"time"

	"github.com/telekom/pathmon/internal/logger"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

var _ socket = (*datagramSocket)(nil)

// datagramSocket sends echo requests over an unprivileged ICMP datagram socket
// ("ping socket"). Echo replies are read from the socket itself, ICMP errors
// such as time-exceeded are read from the kernel error queue, which requires
// IP_RECVERR (IPV6_RECVERR) to be enabled on the socket.
type datagramSocket struct {
	conn    net.PacketConn
	rawConn syscall.RawConn
	v6      bool
	buf     []byte
	oobBuf  []byte
	log     func(msg string, args ...any)
}

const (
	// oobBufSize is the size of the out-of-band buffer used for receiving extended error messages.
	oobBufSize = 512
	// dataBufSize is the size of the buffer receiving the original datagram from the error queue.
	dataBufSize = 128
)

// newDatagramSocket opens an unprivileged ICMP socket with the error queue enabled.
func newDatagramSocket(ctx context.Context, v6 bool) (*datagramSocket, error) {
	family, proto, level, opt := unix.AF_INET, unix.IPPROTO_ICMP, unix.SOL_IP, unix.IP_RECVERR
	var sa unix.Sockaddr = &unix.SockaddrInet4{}
	if v6 {
		family, proto, level, opt = unix.AF_INET6, unix.IPPROTO_ICMPV6, unix.SOL_IPV6, unix.IPV6_RECVERR
		sa = &unix.SockaddrInet6{}
	}

	fd, err := unix.Socket(family, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, level, opt, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to enable error queue: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to bind socket: %w", err)
	}

	f := os.NewFile(uintptr(fd), "icmp-datagram")
	conn, err := net.FilePacketConn(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to wrap socket: %w", err)
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("the provided connection does not implement syscall.Conn: %T", conn)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to get RawConn: %w", err)
	}

	log := logger.FromContext(ctx)
	return &datagramSocket{
		conn:    conn,
		rawConn: rc,
		v6:      v6,
		buf:     make([]byte, mtuSize),
		oobBuf:  make([]byte, oobBufSize),
		log: func(msg string, args ...any) {
			log.DebugContext(ctx, msg, args...)
		},
	}, nil
}

func (s *datagramSocket) send(dst netip.Addr, ttl int, msg []byte) error {
	level, opt := unix.IPPROTO_IP, unix.IP_TTL
	if s.v6 {
		level, opt = unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS
	}

	var serr error
	if err := s.rawConn.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), level, opt, ttl)
	}); err != nil {
		return fmt.Errorf("failed to access socket: %w", err)
	}
	if serr != nil {
		return fmt.Errorf("failed to set TTL: %w", serr)
	}

	if _, err := s.conn.WriteTo(msg, &net.UDPAddr{IP: dst.AsSlice()}); err != nil {
		return fmt.Errorf("failed to write echo request: %w", err)
	}
	return nil
}

// recv waits for an echo reply or a queued ICMP error.
// A pending error on the socket makes the regular read fail, which is
// the signal to drain the error queue.
func (s *datagramSocket) recv(deadline time.Time) (reply, error) {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return reply{}, fmt.Errorf("failed to set read deadline: %w", err)
	}

	n, src, err := s.conn.ReadFrom(s.buf)
	if err == nil {
		return parseReply(s.v6, s.buf[:n], src, time.Now())
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return reply{}, errReadTimeout
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return reply{}, fmt.Errorf("failed to read from ICMP socket: %w", err)
	}

	s.log("Socket reported error, reading error queue", "error", errno)
	return s.recvErrQueue()
}

// recvErrQueue performs a single Recvmsg(..., MSG_ERRQUEUE) and parses one ICMP error.
func (s *datagramSocket) recvErrQueue() (reply, error) {
	var (
		rep   reply
		opErr error
	)
	err := s.rawConn.Read(func(fd uintptr) bool {
		var msg *socketMsg
		msg, opErr = recvMsg(fd, s.oobBuf, unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT)
		if opErr != nil {
			return true
		}
		rep, opErr = parseExtendedErr(s.v6, msg)
		if opErr != nil {
			opErr = fmt.Errorf("%w: %w", errUnrelated, opErr)
		}
		return true
	})
	if err != nil {
		return reply{}, fmt.Errorf("failed to read from raw connection: %w", err)
	}
	if errors.Is(opErr, unix.EAGAIN) {
		return reply{}, fmt.Errorf("%w: error queue is empty", errUnrelated)
	}
	if opErr != nil {
		return reply{}, fmt.Errorf("failed to read ICMP error: %w", opErr)
	}
	rep.at = time.Now()
	return rep, nil
}

// rewritesID reports true: the kernel uses the socket's port as echo identifier.
func (s *datagramSocket) rewritesID() bool { return true }

// Close closes the underlying [net.PacketConn].
func (s *datagramSocket) Close() error {
	return s.conn.Close()
}

// socketMsg represents a message received from the socket error queue.
type socketMsg struct {
	// data is the original datagram that caused the error, which for
	// ICMP datagram sockets is the echo request we sent.
	data []byte
	// oob is the out-of-band data received with the message.
	// This contains the extended error information from the kernel.
	oob []byte
}

// unixRecvMsg is a wrapper around the [unix.Recvmsg] function.
// It allows us to mock the function in tests.
var unixRecvMsg = unix.Recvmsg

// recvMsg receives one message from the error queue of the socket.
var recvMsg = func(fd uintptr, oob []byte, flags int) (*socketMsg, error) {
	dataBuf := make([]byte, dataBufSize)
	n, oobn, _, _, err := unixRecvMsg(int(fd), dataBuf, oob, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to receive message: %w", err)
	}
	return &socketMsg{data: dataBuf[:n], oob: oob[:oobn]}, nil
}

// Origins of extended socket errors, see ip(7).
const (
	eeOriginICMP  = 2
	eeOriginICMP6 = 3
)

// parseExtendedErr decodes IP_RECVERR / IPV6_RECVERR control messages.
var parseExtendedErr = func(v6 bool, msg *socketMsg) (reply, error) {
	cms, err := unix.ParseSocketControlMessage(msg.oob)
	if err != nil {
		return reply{}, fmt.Errorf("failed to parse control messages: %w", err)
	}

	wantLevel, wantType := int32(unix.SOL_IP), int32(unix.IP_RECVERR)
	if v6 {
		wantLevel, wantType = unix.SOL_IPV6, unix.IPV6_RECVERR
	}

	for _, cm := range cms {
		if cm.Header.Level != wantLevel || cm.Header.Type != wantType {
			continue
		}

		ee, err := newSockExtendedErr(cm.Data)
		if err != nil {
			return reply{}, fmt.Errorf("failed to decode extended error: %w", err)
		}
		if ee.Origin != eeOriginICMP && ee.Origin != eeOriginICMP6 {
			return reply{}, fmt.Errorf("local socket error: %w", syscall.Errno(ee.Errno))
		}

		rep := reply{from: offender(cm.Data[minExtendedErrSize:])}
		if rep.kind, rep.reason, err = classifyExtendedErr(v6, ee); err != nil {
			return reply{}, err
		}

		id, seq, err := sentEcho(v6, msg.data)
		if err != nil {
			return reply{}, err
		}
		rep.id, rep.seq = id, seq
		return rep, nil
	}

	return reply{}, errors.New("no IP_RECVERR message found")
}

// classifyExtendedErr maps the ICMP type and code of an extended error.
func classifyExtendedErr(v6 bool, ee unix.SockExtendedErr) (replyKind, Reason, error) {
	if v6 {
		switch ee.Type {
		case uint8(ipv6.ICMPTypeTimeExceeded):
			return replyTimeExceeded, "", nil
		case uint8(ipv6.ICMPTypeDestinationUnreachable):
			return replyUnreachable, unreachableReason(true, int(ee.Code)), nil
		case uint8(ipv6.ICMPTypePacketTooBig):
			return replyUnreachable, ReasonFragmentation, nil
		case uint8(ipv6.ICMPTypeParameterProblem):
			return replyParameterProblem, ReasonParameterProblem, nil
		}
		return 0, "", fmt.Errorf("unexpected ICMPv6 type %d with code %d", ee.Type, ee.Code)
	}

	switch ee.Type {
	case uint8(ipv4.ICMPTypeTimeExceeded):
		return replyTimeExceeded, "", nil
	case uint8(ipv4.ICMPTypeDestinationUnreachable):
		return replyUnreachable, unreachableReason(false, int(ee.Code)), nil
	case uint8(ipv4.ICMPTypeParameterProblem):
		return replyParameterProblem, ReasonParameterProblem, nil
	}
	return 0, "", fmt.Errorf("unexpected ICMP type %d with code %d", ee.Type, ee.Code)
}

// sentEcho decodes the echo request returned with an error queue message.
func sentEcho(v6 bool, data []byte) (id, seq int, err error) {
	proto := protocolICMP
	if v6 {
		proto = protocolICMPv6
	}
	msg, err := icmp.ParseMessage(proto, data)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse original datagram: %w", err)
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		return 0, 0, fmt.Errorf("original datagram is not an echo request: %v", msg.Type)
	}
	return echo.ID, echo.Seq, nil
}

// minExtendedErrSize is the minimum size of the extended error structure
// as defined in the Linux kernel documentation:
// https://man7.org/linux/man-pages/man7/ip.7.html
const minExtendedErrSize = 16

// newSockExtendedErr converts the first 16 bytes of an OOB buffer into a [unix.SockExtendedErr].
func newSockExtendedErr(data []byte) (unix.SockExtendedErr, error) {
	if len(data) < minExtendedErrSize {
		return unix.SockExtendedErr{}, fmt.Errorf("extended error too short: %d bytes", len(data))
	}

	return unix.SockExtendedErr{
		Errno:  binary.LittleEndian.Uint32(data[0:4]),
		Origin: data[4],
		Type:   data[5],
		Code:   data[6],
		Info:   binary.LittleEndian.Uint32(data[8:12]),
		Data:   binary.LittleEndian.Uint32(data[12:16]),
	}, nil
}

// offender decodes the sockaddr following the extended error, which holds
// the address of the host that sent the ICMP error.
func offender(sa []byte) netip.Addr {
	const (
		sockaddrInLen  = 8
		sockaddrIn6Len = 24
	)
	if len(sa) < 2 {
		return netip.Addr{}
	}

	switch binary.LittleEndian.Uint16(sa[0:2]) {
	case unix.AF_INET:
		if len(sa) < sockaddrInLen {
			return netip.Addr{}
		}
		return netip.AddrFrom4([4]byte(sa[4:8]))
	case unix.AF_INET6:
		if len(sa) < sockaddrIn6Len {
			return netip.Addr{}
		}
		return netip.AddrFrom16([16]byte(sa[8:24])).Unmap()
	default:
		return netip.Addr{}
	}
}
