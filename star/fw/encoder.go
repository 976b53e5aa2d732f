// Package fw implements the Hamilton STAR ASCII firmware protocol.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package fw

import (
	"fmt"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// IDCounter hands out monotonically increasing, mod-256 command ids, so
// slave responses can be correlated with the request that triggered
// them.
type IDCounter struct {
	next uint32
}

// Next returns the next id in [0, 255], wrapping around.
func (c *IDCounter) Next() int {
	v := atomic.AddUint32(&c.next, 1) - 1
	return int(v % 256)
}

var bufPool bytebufferpool.Pool

// encodeValue renders a single kwarg value the way the STAR firmware
// expects it: booleans as "1"/"0", ints as decimal, slices as
// space-separated decimal, everything else via fmt.Sprint.
func encodeValue(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int:
		return fmt.Sprintf("%d", t)
	case []int:
		buf := bufPool.Get()
		defer bufPool.Put(buf)
		for i, x := range t {
			if i > 0 {
				buf.WriteString(" ")
			}
			fmt.Fprintf(buf, "%d", x)
		}
		return buf.String()
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Encode builds a STAR ASCII command frame: "<module><cmd>id####<kwargs>\r\n".
// kwargs is encoded in the order given, which the caller
// controls by iterating a slice of key/value pairs rather than a map (STAR
// is insensitive to kwarg order but tests expect a stable encoding).
func Encode(module Module, cmd string, id int, kwargs []KV) string {
	buf := bufPool.Get()
	defer bufPool.Put(buf)

	buf.WriteString(string(module))
	buf.WriteString(cmd)
	fmt.Fprintf(buf, "id%04d", id%10000)
	for _, kv := range kwargs {
		buf.WriteString(kv.Key)
		buf.WriteString(encodeValue(kv.Value))
	}
	buf.WriteString("\r\n")
	return buf.String()
}

// KV is an ordered kwarg for Encode.
type KV struct {
	Key   string
	Value any
}

// Fixed renders v as a zero-padded decimal of the given width, the
// fixed-width field form most STAR numeric parameters use on the wire
// (e.g. xp01409). Negative values keep the sign ahead of the padding.
func Fixed(v, width int) string {
	return fmt.Sprintf("%0*d", width, v)
}

// FixedList renders each element of vs as a Fixed field, separated by
// single spaces, the wire form of per-channel parameter vectors.
func FixedList(vs []int, width int) string {
	buf := bufPool.Get()
	defer bufPool.Put(buf)
	for i, v := range vs {
		if i > 0 {
			buf.WriteString(" ")
		}
		fmt.Fprintf(buf, "%0*d", width, v)
	}
	return buf.String()
}
