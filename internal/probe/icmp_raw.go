// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"golang.org/x/net/icmp"
)

// mtuSize is the receive buffer size for ICMP messages.
const mtuSize = 1500

var _ socket = (*rawSocket)(nil)

// rawSocket sends and receives ICMP messages over a raw socket.
// It requires NET_RAW capabilities to be created successfully.
// Every raw ICMP socket receives a copy of all incoming ICMP messages,
// which is why replies have to be matched against the request.
type rawSocket struct {
	conn *icmp.PacketConn
	v6   bool
	buf  []byte
}

// newRawSocket opens a raw ICMP socket for the given address family.
func newRawSocket(v6 bool) (*rawSocket, error) {
	network, addr := "ip4:icmp", "0.0.0.0"
	if v6 {
		network, addr = "ip6:ipv6-icmp", "::"
	}

	conn, err := icmp.ListenPacket(network, addr)
	if err != nil {
		return nil, err
	}
	return &rawSocket{conn: conn, v6: v6, buf: make([]byte, mtuSize)}, nil
}

func (s *rawSocket) send(dst netip.Addr, ttl int, msg []byte) error {
	if err := setTTL(s.conn, s.v6, ttl); err != nil {
		return err
	}
	if _, err := s.conn.WriteTo(msg, &net.IPAddr{IP: dst.AsSlice()}); err != nil {
		return fmt.Errorf("failed to write echo request: %w", err)
	}
	return nil
}

func (s *rawSocket) recv(deadline time.Time) (reply, error) {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return reply{}, fmt.Errorf("failed to set read deadline: %w", err)
	}

	n, src, err := s.conn.ReadFrom(s.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return reply{}, errReadTimeout
		}
		return reply{}, fmt.Errorf("failed to read from ICMP socket: %w", err)
	}
	return parseReply(s.v6, s.buf[:n], src, time.Now())
}

func (s *rawSocket) rewritesID() bool { return false }

// Close closes the ICMP packet connection.
func (s *rawSocket) Close() error {
	return s.conn.Close()
}

// setTTL sets the TTL or hop limit for subsequent writes on conn.
func setTTL(conn *icmp.PacketConn, v6 bool, ttl int) error {
	if v6 {
		if err := conn.IPv6PacketConn().SetHopLimit(ttl); err != nil {
			return fmt.Errorf("failed to set hop limit: %w", err)
		}
		return nil
	}
	if err := conn.IPv4PacketConn().SetTTL(ttl); err != nil {
		return fmt.Errorf("failed to set TTL: %w", err)
	}
	return nil
}
