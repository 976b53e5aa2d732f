// Package proto implements the Tecan-Cavro "Prep" binary protocol: the
// nested IpPacket/HarpPacket/HoiPacket2 framing and the typed
// DataFragment codec.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package proto

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// IpPacket is the outermost transport frame carried over the TCP link:
// a 2-byte little-endian size (the rest of the frame minus that field),
// a transportable-protocol byte, a packed major/minor version byte, an
// options block, and the HarpPacket payload.
type IpPacket struct {
	Protocol      byte
	VersionMajor  byte
	VersionMinor  byte
	Options       []byte
	Payload       []byte
}

// ipFixedSize is the byte length of IpPacket's fixed header: size(2),
// protocol(1), version(1), options_length(2).
const ipFixedSize = 2 + 1 + 1 + 2

// Size is the wire "size" field: the fixed header minus the size field
// itself, plus options and payload.
func (p *IpPacket) Size() int {
	return ipFixedSize + len(p.Options) + len(p.Payload) - 2
}

// Encode renders p as wire bytes.
func (p *IpPacket) Encode() []byte {
	versionByte := (p.VersionMajor << 4) | (p.VersionMinor & 0x0F)
	out := make([]byte, ipFixedSize+len(p.Options)+len(p.Payload))
	binary.LittleEndian.PutUint16(out[0:2], uint16(p.Size()))
	out[2] = p.Protocol
	out[3] = versionByte
	binary.LittleEndian.PutUint16(out[4:6], uint16(len(p.Options)))
	copy(out[6:], p.Options)
	copy(out[6+len(p.Options):], p.Payload)
	return out
}

// DecodeIpPacket parses an IpPacket from the front of data, returning
// the packet and the number of bytes consumed.
func DecodeIpPacket(data []byte) (*IpPacket, int, error) {
	if len(data) < ipFixedSize {
		return nil, 0, fmt.Errorf("proto: short IpPacket header")
	}
	size := int(binary.LittleEndian.Uint16(data[0:2]))
	protocol := data[2]
	versionByte := data[3]
	optionsLen := int(binary.LittleEndian.Uint16(data[4:6]))
	total := ipFixedSize + optionsLen
	if len(data) < total {
		return nil, 0, fmt.Errorf("proto: short IpPacket options: want %d have %d", optionsLen, len(data)-ipFixedSize)
	}
	options := data[ipFixedSize : ipFixedSize+optionsLen]
	rest := data[ipFixedSize+optionsLen:]
	// size counts everything after the 2-byte size field, so payload length
	// is size - (fixed header - 2) - optionsLen.
	payloadLen := size - (ipFixedSize - 2) - optionsLen
	if payloadLen < 0 || payloadLen > len(rest) {
		return nil, 0, fmt.Errorf("proto: IpPacket size %d inconsistent with buffer", size)
	}
	payload := rest[:payloadLen]
	p := &IpPacket{
		Protocol:     protocol,
		VersionMajor: (versionByte & 0xF0) >> 4,
		VersionMinor: versionByte & 0x0F,
		Options:      options,
		Payload:      payload,
	}
	return p, ipFixedSize + optionsLen + payloadLen, nil
}

// HarpAddress is a 3-field node/unit/sub addressing triple used by both
// source and destination fields of a HarpPacket, each a little-endian
// uint16.
type HarpAddress struct {
	Node uint16
	Unit uint16
	Sub  uint16
}

// HarpPacket is the mid-layer framing: source/destination addresses,
// sequence, protocol/action codes, and an options/version block. Length
// covers the entire HARP packet, including this header.
type HarpPacket struct {
	SourceAddr HarpAddress
	DestAddr   HarpAddress
	Sequence   byte
	Reserved1  byte
	Protocol   byte
	Action     byte
	OptionsLen uint16
	Version    byte
	Reserved2  byte
	Options    []byte
	Payload    []byte
}

// harpHeaderLen is the fixed byte length of every HarpPacket field
// before Options/Payload: two 3x-uint16 addresses (12), sequence(1),
// reserved1(1), protocol(1), action(1), length(2), options_length(2),
// version(1), reserved2(1).
const harpHeaderLen = 6 + 6 + 1 + 1 + 1 + 1 + 2 + 2 + 1 + 1

func encodeHarpAddress(buf []byte, a HarpAddress) {
	binary.LittleEndian.PutUint16(buf[0:2], a.Node)
	binary.LittleEndian.PutUint16(buf[2:4], a.Unit)
	binary.LittleEndian.PutUint16(buf[4:6], a.Sub)
}

func decodeHarpAddress(buf []byte) HarpAddress {
	return HarpAddress{
		Node: binary.LittleEndian.Uint16(buf[0:2]),
		Unit: binary.LittleEndian.Uint16(buf[2:4]),
		Sub:  binary.LittleEndian.Uint16(buf[4:6]),
	}
}

// Length is the wire "length" field: the whole HarpPacket, header
// included.
func (h *HarpPacket) Length() int {
	return harpHeaderLen + len(h.Options) + len(h.Payload)
}

// Encode renders h as wire bytes, computing Length from the payload.
func (h *HarpPacket) Encode() []byte {
	buf := make([]byte, harpHeaderLen+len(h.Options)+len(h.Payload))
	encodeHarpAddress(buf[0:6], h.SourceAddr)
	encodeHarpAddress(buf[6:12], h.DestAddr)
	i := 12
	buf[i] = h.Sequence
	buf[i+1] = h.Reserved1
	i += 2
	buf[i] = h.Protocol
	buf[i+1] = h.Action
	i += 2
	binary.LittleEndian.PutUint16(buf[i:], uint16(h.Length()))
	i += 2
	binary.LittleEndian.PutUint16(buf[i:], uint16(len(h.Options)))
	i += 2
	buf[i] = h.Version
	buf[i+1] = h.Reserved2
	i += 2
	copy(buf[i:], h.Options)
	copy(buf[i+len(h.Options):], h.Payload)
	return buf
}

// DecodeHarpPacket parses a HarpPacket from data.
func DecodeHarpPacket(data []byte) (*HarpPacket, error) {
	if len(data) < harpHeaderLen {
		return nil, fmt.Errorf("proto: short HarpPacket header")
	}
	h := &HarpPacket{}
	h.SourceAddr = decodeHarpAddress(data[0:6])
	h.DestAddr = decodeHarpAddress(data[6:12])
	i := 12
	h.Sequence = data[i]
	h.Reserved1 = data[i+1]
	i += 2
	h.Protocol = data[i]
	h.Action = data[i+1]
	i += 2
	length := int(binary.LittleEndian.Uint16(data[i:]))
	i += 2
	optionsLen := int(binary.LittleEndian.Uint16(data[i:]))
	i += 2
	h.Version = data[i]
	h.Reserved2 = data[i+1]
	i += 2
	if len(data) < i+optionsLen {
		return nil, fmt.Errorf("proto: short HarpPacket options")
	}
	h.Options = data[i : i+optionsLen]
	i += optionsLen
	payloadLen := length - harpHeaderLen - optionsLen
	if payloadLen < 0 || i+payloadLen > len(data) {
		return nil, fmt.Errorf("proto: HarpPacket length %d inconsistent with buffer", length)
	}
	h.Payload = data[i : i+payloadLen]
	h.OptionsLen = uint16(optionsLen)
	return h, nil
}

// HoiPacket2 is the innermost framing layer, carrying the interface and
// action ids plus a count of DataFragments.
type HoiPacket2 struct {
	InterfaceID  byte
	Action       byte
	ActionID     uint16
	Version      byte
	NumFragments byte
	Fragments    []DataFragment
}

const hoiHeaderLen = 1 + 1 + 2 + 1 + 1 // interface_id, action, action_id, version, number_of_fragments

// Encode renders h, appending each fragment's encoded bytes in order.
func (h *HoiPacket2) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(h.InterfaceID)
	buf.WriteByte(h.Action)
	binary.Write(&buf, binary.LittleEndian, h.ActionID)
	buf.WriteByte(h.Version)
	buf.WriteByte(byte(len(h.Fragments)))
	for _, f := range h.Fragments {
		enc, err := f.Encode()
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	return buf.Bytes(), nil
}

// DecodeHoiPacket2 parses a HoiPacket2, consuming exactly NumFragments
// fragments from the remainder of data (each self-delimiting via its
// own 4-byte type/flags/length header).
func DecodeHoiPacket2(data []byte) (*HoiPacket2, error) {
	if len(data) < hoiHeaderLen {
		return nil, fmt.Errorf("proto: short HoiPacket2 header")
	}
	h := &HoiPacket2{
		InterfaceID:  data[0],
		Action:       data[1],
		ActionID:     binary.LittleEndian.Uint16(data[2:4]),
		Version:      data[4],
		NumFragments: data[5],
	}
	rest := data[hoiHeaderLen:]
	for i := 0; i < int(h.NumFragments); i++ {
		f, n, err := DecodeDataFragment(rest)
		if err != nil {
			return nil, fmt.Errorf("proto: fragment %d: %w", i, err)
		}
		h.Fragments = append(h.Fragments, f)
		rest = rest[n:]
	}
	return h, nil
}
