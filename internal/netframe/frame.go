// Package netframe builds and parses the Ethernet/IPv4/UDP frame that
// wraps every MoldUDP64/ITCH payload in a PCAP record, grounded on
// original_source/pcap.c's create_udp_packet and its one's-complement
// checksum helpers. Per spec.md §9, checksums fold carries then
// invert; this is verified against known-good IPv4/UDP checksum
// values in the test suite.
package netframe

import (
	"encoding/binary"
	"fmt"
)

// MAC is a 6-byte Ethernet hardware address.
type MAC [6]byte

// Endpoint is one side of a UDP conversation: a MAC, an IPv4 address,
// and a port.
type Endpoint struct {
	MAC  MAC
	IP   [4]byte
	Port uint16
}

const (
	etherHeaderLen = 14
	ipHeaderLen    = 20
	udpHeaderLen   = 8
	// HeaderLen is the combined Ethernet+IPv4+UDP header length every
	// record's payload is wrapped in.
	HeaderLen = etherHeaderLen + ipHeaderLen + udpHeaderLen

	ethertypeIPv4 = 0x0800
	ipFlagDF      = 0x4000 // flags=Don't Fragment (3 bits) << 13 | frag offset(13 bits)=0
	protoUDP      = 0x11
)

// checksumStep folds buf into a running one's-complement sum,
// matching pcap.c's ip_checksum_step: 16-bit words summed with
// carries accumulated in a 32-bit accumulator, an odd trailing byte
// padded with a zero low byte.
func checksumStep(sum uint32, buf []byte) uint32 {
	n := len(buf)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(buf[i : i+2]))
	}
	if n&1 == 1 {
		sum += uint32(buf[n-1]) << 8
	}
	return sum
}

// checksumFinal folds a running sum down to 16 bits and inverts it,
// matching pcap.c's ip_checksum_final.
func checksumFinal(sum uint32) uint16 {
	for sum>>16 != 0 {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}

// BuildUDPFrame assembles the Ethernet/IPv4/UDP header in front of
// payload, exactly as spec.md §4.6 and pcap.c's create_udp_packet
// describe: IHL=5, version=4, TOS=0, ID=0, Don't-Fragment set, TTL=64,
// protocol=UDP, IP checksum over the header alone, UDP checksum over
// the IPv4 pseudo-header + UDP header + payload.
func BuildUDPFrame(dst, src Endpoint, payload []byte) []byte {
	buf := make([]byte, HeaderLen+len(payload))

	// Ethernet.
	copy(buf[0:6], dst.MAC[:])
	copy(buf[6:12], src.MAC[:])
	binary.BigEndian.PutUint16(buf[12:14], ethertypeIPv4)

	ip := buf[etherHeaderLen : etherHeaderLen+ipHeaderLen]
	ip[0] = 0x45 // version=4, IHL=5
	ip[1] = 0x00 // TOS
	binary.BigEndian.PutUint16(ip[2:4], uint16(ipHeaderLen+udpHeaderLen+len(payload)))
	binary.BigEndian.PutUint16(ip[4:6], 0) // ID
	binary.BigEndian.PutUint16(ip[6:8], ipFlagDF)
	ip[8] = 64 // TTL
	ip[9] = protoUDP
	binary.BigEndian.PutUint16(ip[10:12], 0) // checksum, filled below
	copy(ip[12:16], src.IP[:])
	copy(ip[16:20], dst.IP[:])

	ipSum := checksumStep(0, ip)
	binary.BigEndian.PutUint16(ip[10:12], checksumFinal(ipSum))

	udp := buf[etherHeaderLen+ipHeaderLen : HeaderLen]
	binary.BigEndian.PutUint16(udp[0:2], src.Port)
	binary.BigEndian.PutUint16(udp[2:4], dst.Port)
	binary.BigEndian.PutUint16(udp[4:6], uint16(udpHeaderLen+len(payload)))
	binary.BigEndian.PutUint16(udp[6:8], 0) // checksum, filled below

	var pseudo [12]byte
	copy(pseudo[0:4], src.IP[:])
	copy(pseudo[4:8], dst.IP[:])
	pseudo[8] = 0
	pseudo[9] = protoUDP
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(udpHeaderLen+len(payload)))

	udpSum := checksumStep(0, pseudo[:])
	udpSum = checksumStep(udpSum, udp)
	udpSum = checksumStep(udpSum, payload)
	binary.BigEndian.PutUint16(udp[6:8], checksumFinal(udpSum))

	copy(buf[HeaderLen:], payload)
	return buf
}

// ParsedFrame is the result of parsing an Ethernet/IPv4/UDP frame:
// the observed endpoints and the UDP payload.
type ParsedFrame struct {
	Dst     Endpoint
	Src     Endpoint
	Payload []byte
}

// ParseUDPFrame decodes the Ethernet/IPv4/UDP headers from the front
// of buf and returns the observed endpoints and the remaining
// payload. It does not validate checksums; spec.md's reader contract
// only requires recovering length and endpoints.
func ParseUDPFrame(buf []byte) (ParsedFrame, error) {
	if len(buf) < HeaderLen {
		return ParsedFrame{}, fmt.Errorf("netframe: short frame: %d bytes", len(buf))
	}

	var pf ParsedFrame
	copy(pf.Dst.MAC[:], buf[0:6])
	copy(pf.Src.MAC[:], buf[6:12])

	ip := buf[etherHeaderLen : etherHeaderLen+ipHeaderLen]
	ihl := int(ip[0]&0x0f) * 4
	if ihl < ipHeaderLen {
		return ParsedFrame{}, fmt.Errorf("netframe: invalid IHL %d", ihl)
	}
	copy(pf.Src.IP[:], ip[12:16])
	copy(pf.Dst.IP[:], ip[16:20])

	udpOff := etherHeaderLen + ihl
	if len(buf) < udpOff+udpHeaderLen {
		return ParsedFrame{}, fmt.Errorf("netframe: short frame for udp header")
	}
	udp := buf[udpOff : udpOff+udpHeaderLen]
	pf.Src.Port = binary.BigEndian.Uint16(udp[0:2])
	pf.Dst.Port = binary.BigEndian.Uint16(udp[2:4])
	udpLen := int(binary.BigEndian.Uint16(udp[4:6]))

	payloadOff := udpOff + udpHeaderLen
	payloadLen := udpLen - udpHeaderLen
	if payloadLen < 0 || payloadOff+payloadLen > len(buf) {
		return ParsedFrame{}, fmt.Errorf("netframe: inconsistent udp length %d", udpLen)
	}
	pf.Payload = buf[payloadOff : payloadOff+payloadLen]
	return pf, nil
}
