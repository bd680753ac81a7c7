// Package nsca implements the NSCA v3 wire protocol as a sink consumer:
// framing, CRC32 integrity check, optional XOR encryption, and MRU address
// failover across a resolved server's address list.
package nsca

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	// IVSize is the length of the init packet's random initialization vector.
	IVSize = 128

	// InitPacketSize is the fixed size of the server's init packet: the IV
	// plus a 4-byte big-endian timestamp.
	InitPacketSize = IVSize + 4

	maxHostnameLen = 63
	maxServiceLen  = 127
	maxOutputLen   = 4095

	hostnameField = 64
	serviceField  = 128
	outputField   = 4096

	// ServicePacketSize is the fixed size of a client->server service
	// check packet: int16+int16+uint32+uint32+int16 header, the three
	// null-padded string fields, and a trailing int16 pad.
	ServicePacketSize = 2 + 2 + 4 + 4 + 2 + hostnameField + serviceField + outputField + 2

	// PacketVersion is the NSCA v3 packet version field value.
	PacketVersion = 3
)

// InitPacket is the server's greeting: a random IV and the server's clock,
// used as the XOR key material and freshness hint for the service packet.
type InitPacket struct {
	IV        [IVSize]byte
	Timestamp uint32
}

// ParseInitPacket decodes the fixed-size init packet. data must be exactly
// InitPacketSize bytes, as required by the "receive until exactly this many
// bytes" framing rule.
func ParseInitPacket(data []byte) (InitPacket, error) {
	var p InitPacket
	if len(data) != InitPacketSize {
		return p, fmt.Errorf("nsca: init packet must be %d bytes, got %d", InitPacketSize, len(data))
	}
	copy(p.IV[:], data[:IVSize])
	p.Timestamp = binary.BigEndian.Uint32(data[IVSize:])
	return p, nil
}

// ServicePacket is one client->server check result.
type ServicePacket struct {
	Timestamp uint32
	Status    int16
	Hostname  string
	Service   string
	Output    string
}

// Encode builds the fixed-size, CRC-protected wire form of p. Output longer
// than maxOutputLen is silently truncated; an oversize hostname or service
// name is a hard error (Client.Send drops such a check with a warning and
// the consumer continues).
func (p ServicePacket) Encode() ([]byte, error) {
	if len(p.Hostname) > maxHostnameLen {
		return nil, fmt.Errorf("nsca: hostname %q exceeds %d bytes", p.Hostname, maxHostnameLen)
	}
	if len(p.Service) > maxServiceLen {
		return nil, fmt.Errorf("nsca: service name %q exceeds %d bytes", p.Service, maxServiceLen)
	}
	output := p.Output
	if len(output) > maxOutputLen {
		output = output[:maxOutputLen]
	}

	buf := new(bytes.Buffer)
	buf.Grow(ServicePacketSize)

	binary.Write(buf, binary.BigEndian, int16(PacketVersion))
	binary.Write(buf, binary.BigEndian, int16(0)) // pad0
	binary.Write(buf, binary.BigEndian, uint32(0)) // crc32 placeholder
	binary.Write(buf, binary.BigEndian, p.Timestamp)
	binary.Write(buf, binary.BigEndian, p.Status)
	writeFixed(buf, p.Hostname, hostnameField)
	writeFixed(buf, p.Service, serviceField)
	writeFixed(buf, output, outputField)
	binary.Write(buf, binary.BigEndian, int16(0)) // pad1

	packet := buf.Bytes()
	if len(packet) != ServicePacketSize {
		return nil, fmt.Errorf("nsca: encoded packet is %d bytes, want %d", len(packet), ServicePacketSize)
	}

	sum := crc32.ChecksumIEEE(packet)
	binary.BigEndian.PutUint32(packet[4:8], sum)

	return packet, nil
}

// writeFixed writes s into a fixed-width, null-padded field.
func writeFixed(buf *bytes.Buffer, s string, width int) {
	field := make([]byte, width)
	copy(field, s)
	buf.Write(field)
}

// VerifyCRC reports whether packet's embedded CRC32 matches its contents.
// packet must be exactly ServicePacketSize bytes.
func VerifyCRC(packet []byte) bool {
	if len(packet) != ServicePacketSize {
		return false
	}
	want := binary.BigEndian.Uint32(packet[4:8])
	clone := make([]byte, len(packet))
	copy(clone, packet)
	binary.BigEndian.PutUint32(clone[4:8], 0)
	return crc32.ChecksumIEEE(clone) == want
}
