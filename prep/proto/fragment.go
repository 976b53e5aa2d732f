// Package proto implements the Tecan-Cavro "Prep" binary protocol.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package proto

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ParameterType is the wire type tag every DataFragment leads with,
// numbered to match the firmware's own parameter-type enumeration so
// raw captures stay comparable.
type ParameterType byte

const (
	TypeVoid           ParameterType = 0
	TypeInt8           ParameterType = 1
	TypeInt16          ParameterType = 2
	TypeInt32          ParameterType = 3
	TypeUInt8          ParameterType = 4
	TypeUInt16         ParameterType = 5
	TypeUInt32         ParameterType = 6
	TypeString         ParameterType = 15
	TypeUInt8Array     ParameterType = 22
	TypeBool           ParameterType = 23
	TypeInt8Array      ParameterType = 24
	TypeInt16Array     ParameterType = 25
	TypeUInt16Array    ParameterType = 26
	TypeInt32Array     ParameterType = 27
	TypeUInt32Array    ParameterType = 28
	TypeBoolArray      ParameterType = 29
	TypeStructure      ParameterType = 30
	TypeStructureArray ParameterType = 31
	TypeEnum           ParameterType = 32
	TypeHcResult       ParameterType = 33
	TypeEnumArray      ParameterType = 35
	TypeReal32         ParameterType = 40
	TypeReal64         ParameterType = 41
	TypeReal32Array    ParameterType = 42
	TypeReal64Array    ParameterType = 43
)

// paddedBit is bit 0 of the flags byte: set for a fragment whose
// fixed-width payload carries one trailing pad byte (boolean and byte
// types are padded to an even length).
const paddedBit = 0x1

// DataFragment is one typed value in a HoiPacket2 payload: type tag,
// padding flag, a length covering everything after the 4-byte header,
// and the value itself.
type DataFragment struct {
	Type  ParameterType
	Value any
}

// fragmentHeader renders the 4-byte type/flags/length header that
// precedes every fragment's payload.
func fragmentHeader(typ ParameterType, padded bool, payloadLen int) []byte {
	hdr := make([]byte, 4)
	hdr[0] = byte(typ)
	if padded {
		hdr[1] = paddedBit
	}
	binary.LittleEndian.PutUint16(hdr[2:], uint16(payloadLen))
	return hdr
}

// Encode renders f as its 4-byte header followed by the type-specific
// payload.
func (f DataFragment) Encode() ([]byte, error) {
	switch f.Type {
	case TypeInt8:
		v, err := asInt(f.Value)
		if err != nil {
			return nil, err
		}
		return append(fragmentHeader(f.Type, false, 1), byte(v)), nil
	case TypeUInt8:
		v, err := asInt(f.Value)
		if err != nil {
			return nil, err
		}
		return append(fragmentHeader(f.Type, true, 2), byte(v), 0), nil
	case TypeBool:
		v, err := asInt(f.Value)
		if err != nil {
			return nil, err
		}
		b := byte(0)
		if v != 0 {
			b = 1
		}
		return append(fragmentHeader(f.Type, true, 2), b, 0), nil
	case TypeInt16, TypeUInt16:
		v, err := asInt(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, 2)
		binary.LittleEndian.PutUint16(body, uint16(v))
		return append(fragmentHeader(f.Type, false, 2), body...), nil
	case TypeInt32, TypeUInt32, TypeEnum:
		v, err := asInt(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, 4)
		binary.LittleEndian.PutUint32(body, uint32(v))
		return append(fragmentHeader(f.Type, false, 4), body...), nil
	case TypeHcResult:
		v, err := asInt(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, 2)
		binary.LittleEndian.PutUint16(body, uint16(v))
		return append(fragmentHeader(f.Type, false, 2), body...), nil
	case TypeReal32:
		v, err := asFloat(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, 4)
		binary.LittleEndian.PutUint32(body, math.Float32bits(float32(v)))
		return append(fragmentHeader(f.Type, false, 4), body...), nil
	case TypeReal64:
		v, err := asFloat(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, 8)
		binary.LittleEndian.PutUint64(body, math.Float64bits(v))
		return append(fragmentHeader(f.Type, false, 8), body...), nil
	case TypeString:
		s, ok := f.Value.(string)
		if !ok {
			return nil, fmt.Errorf("proto: string fragment value is %T", f.Value)
		}
		body := append([]byte(s), 0)
		return append(fragmentHeader(f.Type, false, len(body)), body...), nil
	case TypeInt8Array, TypeUInt8Array:
		arr, err := asIntSlice(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, len(arr))
		for i, v := range arr {
			body[i] = byte(v)
		}
		return append(fragmentHeader(f.Type, false, len(body)), body...), nil
	case TypeBoolArray:
		arr, err := asBoolSlice(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, len(arr))
		for i, v := range arr {
			if v {
				body[i] = 1
			}
		}
		return append(fragmentHeader(f.Type, false, len(body)), body...), nil
	case TypeInt16Array, TypeUInt16Array:
		arr, err := asIntSlice(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, len(arr)*2)
		for i, v := range arr {
			binary.LittleEndian.PutUint16(body[i*2:], uint16(v))
		}
		return append(fragmentHeader(f.Type, false, len(body)), body...), nil
	case TypeInt32Array, TypeUInt32Array, TypeEnumArray:
		arr, err := asIntSlice(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, len(arr)*4)
		for i, v := range arr {
			binary.LittleEndian.PutUint32(body[i*4:], uint32(v))
		}
		return append(fragmentHeader(f.Type, false, len(body)), body...), nil
	case TypeReal32Array:
		arr, err := asFloatSlice(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, len(arr)*4)
		for i, v := range arr {
			binary.LittleEndian.PutUint32(body[i*4:], math.Float32bits(float32(v)))
		}
		return append(fragmentHeader(f.Type, false, len(body)), body...), nil
	case TypeReal64Array:
		arr, err := asFloatSlice(f.Value)
		if err != nil {
			return nil, err
		}
		body := make([]byte, len(arr)*8)
		for i, v := range arr {
			binary.LittleEndian.PutUint64(body[i*8:], math.Float64bits(v))
		}
		return append(fragmentHeader(f.Type, false, len(body)), body...), nil
	case TypeStructure:
		frags, ok := f.Value.([]DataFragment)
		if !ok {
			return nil, fmt.Errorf("proto: structure fragment value is %T", f.Value)
		}
		var body bytes.Buffer
		for _, sub := range frags {
			enc, err := sub.Encode()
			if err != nil {
				return nil, err
			}
			body.Write(enc)
		}
		return append(fragmentHeader(f.Type, false, body.Len()), body.Bytes()...), nil
	case TypeStructureArray:
		groups, ok := f.Value.([][]DataFragment)
		if !ok {
			return nil, fmt.Errorf("proto: structure-array fragment value is %T", f.Value)
		}
		var body bytes.Buffer
		for _, group := range groups {
			enc, err := (DataFragment{Type: TypeStructure, Value: group}).Encode()
			if err != nil {
				return nil, err
			}
			body.Write(enc)
		}
		return append(fragmentHeader(f.Type, false, body.Len()), body.Bytes()...), nil
	default:
		return nil, fmt.Errorf("proto: unknown parameter type %d", f.Type)
	}
}

// DecodeDataFragment parses one fragment from the front of data,
// returning it and the number of bytes consumed (header + payload).
func DecodeDataFragment(data []byte) (DataFragment, int, error) {
	if len(data) < 4 {
		return DataFragment{}, 0, fmt.Errorf("proto: short fragment header")
	}
	typ := ParameterType(data[0])
	flags := data[1]
	length := int(binary.LittleEndian.Uint16(data[2:4]))
	padded := flags&paddedBit == paddedBit
	if len(data) < 4+length {
		return DataFragment{}, 0, fmt.Errorf("proto: short fragment body for type %d", typ)
	}
	body := data[4 : 4+length]
	consumed := 4 + length

	switch typ {
	case TypeInt8:
		return DataFragment{typ, int(int8(body[0]))}, consumed, nil
	case TypeUInt8:
		return DataFragment{typ, int(body[0])}, consumed, nil
	case TypeBool:
		return DataFragment{typ, body[0] != 0}, consumed, nil
	case TypeInt16:
		return DataFragment{typ, int(int16(binary.LittleEndian.Uint16(body)))}, consumed, nil
	case TypeUInt16:
		return DataFragment{typ, int(binary.LittleEndian.Uint16(body))}, consumed, nil
	case TypeHcResult:
		return DataFragment{typ, int(binary.LittleEndian.Uint16(body))}, consumed, nil
	case TypeInt32:
		return DataFragment{typ, int(int32(binary.LittleEndian.Uint32(body)))}, consumed, nil
	case TypeUInt32, TypeEnum:
		return DataFragment{typ, int(binary.LittleEndian.Uint32(body))}, consumed, nil
	case TypeReal32:
		return DataFragment{typ, float64(math.Float32frombits(binary.LittleEndian.Uint32(body)))}, consumed, nil
	case TypeReal64:
		return DataFragment{typ, math.Float64frombits(binary.LittleEndian.Uint64(body))}, consumed, nil
	case TypeString:
		n := length
		if padded {
			n--
		}
		if n <= 0 {
			return DataFragment{typ, ""}, consumed, nil
		}
		s := string(bytes.TrimRight(body[:n-1], "\x00"))
		return DataFragment{typ, s}, consumed, nil
	case TypeInt8Array:
		n := length
		if padded {
			n--
		}
		arr := make([]int, n)
		for i := 0; i < n; i++ {
			arr[i] = int(int8(body[i]))
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeUInt8Array:
		n := length
		if padded {
			n--
		}
		arr := make([]int, n)
		for i := 0; i < n; i++ {
			arr[i] = int(body[i])
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeBoolArray:
		n := length
		if padded {
			n--
		}
		arr := make([]bool, n)
		for i := 0; i < n; i++ {
			arr[i] = body[i] != 0
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeInt16Array:
		n := length / 2
		arr := make([]int, n)
		for i := 0; i < n; i++ {
			arr[i] = int(int16(binary.LittleEndian.Uint16(body[i*2:])))
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeUInt16Array:
		n := length / 2
		arr := make([]int, n)
		for i := 0; i < n; i++ {
			arr[i] = int(binary.LittleEndian.Uint16(body[i*2:]))
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeInt32Array:
		n := length / 4
		arr := make([]int, n)
		for i := 0; i < n; i++ {
			arr[i] = int(int32(binary.LittleEndian.Uint32(body[i*4:])))
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeUInt32Array, TypeEnumArray:
		n := length / 4
		arr := make([]int, n)
		for i := 0; i < n; i++ {
			arr[i] = int(binary.LittleEndian.Uint32(body[i*4:]))
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeReal32Array:
		n := length / 4
		arr := make([]float64, n)
		for i := 0; i < n; i++ {
			arr[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:])))
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeReal64Array:
		n := length / 8
		arr := make([]float64, n)
		for i := 0; i < n; i++ {
			arr[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:]))
		}
		return DataFragment{typ, arr}, consumed, nil
	case TypeStructure:
		var subs []DataFragment
		offset := 0
		for offset < len(body) {
			sub, n, err := DecodeDataFragment(body[offset:])
			if err != nil {
				return DataFragment{}, 0, err
			}
			subs = append(subs, sub)
			offset += n
		}
		return DataFragment{typ, subs}, consumed, nil
	case TypeStructureArray:
		var groups [][]DataFragment
		offset := 0
		for offset < len(body) {
			sub, n, err := DecodeDataFragment(body[offset:])
			if err != nil {
				return DataFragment{}, 0, err
			}
			if sub.Type != TypeStructure {
				return DataFragment{}, 0, fmt.Errorf("proto: structure-array element has type %d, want Structure", sub.Type)
			}
			groups = append(groups, sub.Value.([]DataFragment))
			offset += n
		}
		return DataFragment{typ, groups}, consumed, nil
	default:
		return DataFragment{}, 0, fmt.Errorf("proto: unknown parameter type %d", typ)
	}
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("proto: expected integer value, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("proto: expected float value, got %T", v)
	}
}

func asIntSlice(v any) ([]int, error) {
	arr, ok := v.([]int)
	if !ok {
		return nil, fmt.Errorf("proto: expected []int value, got %T", v)
	}
	return arr, nil
}

func asFloatSlice(v any) ([]float64, error) {
	arr, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("proto: expected []float64 value, got %T", v)
	}
	return arr, nil
}

func asBoolSlice(v any) ([]bool, error) {
	arr, ok := v.([]bool)
	if !ok {
		return nil, fmt.Errorf("proto: expected []bool value, got %T", v)
	}
	return arr, nil
}
