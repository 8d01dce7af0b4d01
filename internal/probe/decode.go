// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	protocolICMP   = 1
	protocolICMPv6 = 58
)

// replyKind classifies a received ICMP message.
type replyKind uint8

const (
	replyEcho replyKind = iota + 1
	replyTimeExceeded
	replyUnreachable
	replyParameterProblem
)

// reply is an ICMP message that may answer one of our echo requests.
type reply struct {
	// from is the address of the host that sent the message.
	from netip.Addr
	kind replyKind
	// reason is set for unreachable and parameter problem messages.
	reason Reason
	// id and seq identify the echo request the message refers to.
	id, seq int
	// at is the receive timestamp.
	at time.Time
}

// echoMessage returns the marshaled echo request for the given family.
func echoMessage(v6 bool, id, seq int) ([]byte, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: []byte("pathmon")},
	}
	if v6 {
		msg.Type = ipv6.ICMPTypeEchoRequest
	}
	return msg.Marshal(nil)
}

// parseReply decodes an ICMP message received from src.
// Messages quoting a datagram that is not an echo request are rejected
// with [errUnrelated].
func parseReply(v6 bool, b []byte, src net.Addr, at time.Time) (reply, error) {
	rep, err := decodeReply(v6, b, src, at)
	if err != nil {
		return reply{}, fmt.Errorf("%w: %w", errUnrelated, err)
	}
	return rep, nil
}

func decodeReply(v6 bool, b []byte, src net.Addr, at time.Time) (reply, error) {
	proto := protocolICMP
	if v6 {
		proto = protocolICMPv6
	}
	msg, err := icmp.ParseMessage(proto, b)
	if err != nil {
		return reply{}, fmt.Errorf("failed to parse ICMP message: %w", err)
	}

	rep := reply{from: addrFromNet(src), at: at}
	var quoted []byte
	switch body := msg.Body.(type) {
	case *icmp.Echo:
		if msg.Type != ipv4.ICMPTypeEchoReply && msg.Type != ipv6.ICMPTypeEchoReply {
			return reply{}, fmt.Errorf("unexpected echo type %v", msg.Type)
		}
		rep.kind, rep.id, rep.seq = replyEcho, body.ID, body.Seq
		return rep, nil
	case *icmp.TimeExceeded:
		rep.kind, quoted = replyTimeExceeded, body.Data
	case *icmp.DstUnreach:
		rep.kind, quoted = replyUnreachable, body.Data
		rep.reason = unreachableReason(v6, msg.Code)
	case *icmp.ParamProb:
		rep.kind, quoted = replyParameterProblem, body.Data
		rep.reason = ReasonParameterProblem
	case *icmp.PacketTooBig:
		rep.kind, quoted = replyUnreachable, body.Data
		rep.reason = ReasonFragmentation
	default:
		return reply{}, fmt.Errorf("unexpected ICMP message type %v", msg.Type)
	}

	id, seq, err := quotedEcho(quoted)
	if err != nil {
		return reply{}, err
	}
	rep.id, rep.seq = id, seq
	return rep, nil
}

// quotedEcho extracts identifier and sequence number of the echo request
// quoted by an ICMP error message. Routers usually quote only the IP
// header plus eight bytes, which is exactly the echo header.
func quotedEcho(data []byte) (id, seq int, err error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("empty quoted datagram")
	}

	first := layers.LayerTypeIPv4
	if data[0]>>4 == 6 {
		first = layers.LayerTypeIPv6
	}
	pkt := gopacket.NewPacket(data, first, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	if l := pkt.Layer(layers.LayerTypeICMPv4); l != nil {
		echo := l.(*layers.ICMPv4)
		t := echo.TypeCode.Type()
		if t != layers.ICMPv4TypeEchoRequest {
			return 0, 0, fmt.Errorf("quoted ICMPv4 message is not an echo request: %v", echo.TypeCode)
		}
		return int(echo.Id), int(echo.Seq), nil
	}

	if l := pkt.Layer(layers.LayerTypeICMPv6Echo); l != nil {
		echo := l.(*layers.ICMPv6Echo)
		return int(echo.Identifier), int(echo.SeqNumber), nil
	}

	if fail := pkt.ErrorLayer(); fail != nil {
		return 0, 0, fmt.Errorf("failed to decode quoted datagram: %w", fail.Error())
	}
	return 0, 0, fmt.Errorf("quoted datagram carries no echo request")
}

// unreachableReason maps destination unreachable codes to reasons.
// For more information, see:
// https://www.iana.org/assignments/icmp-parameters/icmp-parameters.xhtml#icmp-parameters-codes-3
func unreachableReason(v6 bool, code int) Reason {
	if v6 {
		switch code {
		case 0:
			return ReasonNetworkUnreachable
		case 1:
			return ReasonAdminProhibited
		case 3:
			return ReasonHostUnreachable
		case 4:
			return ReasonPortUnreachable
		default:
			return ReasonUnreachable
		}
	}

	switch code {
	case 0, 6, 11:
		return ReasonNetworkUnreachable
	case 1, 7, 12:
		return ReasonHostUnreachable
	case 2:
		return ReasonProtocolUnreachable
	case 3:
		return ReasonPortUnreachable
	case 4:
		return ReasonFragmentation
	case 9, 10, 13:
		return ReasonAdminProhibited
	default:
		return ReasonUnreachable
	}
}

// addrFromNet extracts the IP address from a [net.Addr].
func addrFromNet(addr net.Addr) netip.Addr {
	var ip net.IP
	switch a := addr.(type) {
	case *net.IPAddr:
		ip = a.IP
	case *net.UDPAddr:
		ip = a.IP
	default:
		return netip.Addr{}
	}
	parsed, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}
	}
	return parsed.Unmap()
}
