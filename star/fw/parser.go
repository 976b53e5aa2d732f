// Package fw implements the Hamilton STAR ASCII firmware protocol.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package fw

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/benchctl/labcore/errs"
)

// paramSpec is one tokenized parameter specification from a format string,
// e.g. "aa####" -> {name: "aa", class: '#', length: 4, isList: false} or
// "ry#### (n)" -> {name: "ry", class: '#', length: 4, isList: true}.
type paramSpec struct {
	name    string
	class   byte // '#', '*', or '&'
	length  int
	isList  bool
}

func isTypeChar(b byte) bool {
	return b == '#' || b == '*' || b == '&'
}

// tokenizeFormat splits a format string into ordered parameter specs.
func tokenizeFormat(format string) ([]paramSpec, error) {
	var specs []paramSpec
	i := 0
	for i < len(format) {
		if format[i] == ' ' {
			i++
			continue
		}
		if i+2 > len(format) {
			return nil, fmt.Errorf("fw: malformed format string at %q", format[i:])
		}
		name := format[i : i+2]
		i += 2
		if i >= len(format) || !isTypeChar(format[i]) {
			return nil, fmt.Errorf("fw: expected type char after parameter %q", name)
		}
		class := format[i]
		length := 0
		for i < len(format) && format[i] == class {
			length++
			i++
		}
		isList := false
		if strings.HasPrefix(format[i:], " (n)") {
			isList = true
			i += len(" (n)")
		}
		specs = append(specs, paramSpec{name: name, class: class, length: length, isList: isList})
	}
	return specs, nil
}

func classRegex(class byte) string {
	switch class {
	case '#':
		return `[-+\d ]`
	case '*':
		return `[\da-fA-F ]`
	default:
		return `.`
	}
}

func (s paramSpec) regex() *regexp.Regexp {
	cls := classRegex(s.class)
	var pat string
	if s.isList {
		pat = fmt.Sprintf(`%s((?:%s{%d} ?)+)`, regexp.QuoteMeta(s.name), cls, s.length)
	} else {
		pat = fmt.Sprintf(`%s(%s{%d})`, regexp.QuoteMeta(s.name), cls, s.length)
	}
	return regexp.MustCompile(pat)
}

func decodeScalar(class byte, raw string) (any, error) {
	switch class {
	case '#':
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		return v, nil
	case '*':
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 16, 64)
		if err != nil {
			return nil, err
		}
		return int(v), nil
	default:
		return raw, nil
	}
}

// Parse decodes a STAR response string against a format string. resp
// must include the leading 4-byte device+cmd identifier, which is
// stripped before matching.
func Parse(resp string, format string) (map[string]any, error) {
	if len(resp) < 4 {
		return nil, fmt.Errorf("fw: response too short: %q", resp)
	}
	body := resp[4:]

	specs, err := tokenizeFormat(format)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(specs)+1)
	haveID := false
	for _, spec := range specs {
		if spec.name == "id" {
			haveID = true
		}
		re := spec.regex()
		m := re.FindStringSubmatch(body)
		if m == nil {
			return nil, fmt.Errorf("could not find matches for parameter %s", spec.name)
		}
		if spec.isList {
			parts := strings.Fields(m[1])
			vals := make([]any, 0, len(parts))
			for _, p := range parts {
				v, err := decodeScalar(spec.class, p)
				if err != nil {
					return nil, fmt.Errorf("fw: decoding list element of %s: %w", spec.name, err)
				}
				vals = append(vals, v)
			}
			out[spec.name] = vals
		} else {
			v, err := decodeScalar(spec.class, m[1])
			if err != nil {
				return nil, fmt.Errorf("fw: decoding %s: %w", spec.name, err)
			}
			out[spec.name] = v
		}
	}

	if !haveID {
		idSpec := paramSpec{name: "id", class: '#', length: 4}
		re := idSpec.regex()
		if m := re.FindStringSubmatch(body); m != nil {
			v, err := decodeScalar('#', m[1])
			if err != nil {
				return nil, err
			}
			out["id"] = v
		}
	}

	return out, nil
}

// MustInt extracts an int field, panicking on type mismatch; useful in
// tests and call sites that already validated the shape.
func MustInt(m map[string]any, key string) int {
	v, ok := m[key].(int)
	if !ok {
		panic(fmt.Sprintf("fw: field %q is not an int", key))
	}
	return v
}

// RequireInt is the error-returning counterpart of MustInt, used by
// orchestrator code that must not panic on malformed input.
func RequireInt(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, errs.InvalidArgument("fw: missing field %q", key)
	}
	i, ok := v.(int)
	if !ok {
		return 0, errs.InvalidArgument("fw: field %q is not an int", key)
	}
	return i, nil
}
