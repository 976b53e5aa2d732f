// Package fw implements the Hamilton STAR ASCII firmware protocol.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package fw

import (
	"reflect"
	"testing"

	"github.com/benchctl/labcore/errs"
)

// Scalar parameters of all three type classes decode correctly and
// are insensitive to the order they appear in the response string.
func TestParseScalarTypes(t *testing.T) {
	resp := "C0QMid0001aa1234bb&&ccAA"
	got, err := Parse(resp, "aa####bb&&cc**")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got["aa"] != 1234 {
		t.Errorf("aa: got %v", got["aa"])
	}
	if got["bb"] != "&&" {
		t.Errorf("bb: got %v", got["bb"])
	}
	if got["cc"] != 0xAA {
		t.Errorf("cc: got %v (want 0xAA)", got["cc"])
	}
	if got["id"] != 1 {
		t.Errorf("id: got %v", got["id"])
	}
}

func TestParseIsOrderInsensitive(t *testing.T) {
	resp := "C0QMid0001bb&&aa1234"
	got, err := Parse(resp, "aa####bb&&")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got["aa"] != 1234 || got["bb"] != "&&" {
		t.Errorf("got %v", got)
	}
}

// List-typed parameters split space-separated fixed-width groups.
func TestParseListParameter(t *testing.T) {
	resp := "C0QMid0001ry0100 0200 0300"
	got, err := Parse(resp, "ry#### (n)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []any{100, 200, 300}
	if !reflect.DeepEqual(got["ry"], want) {
		t.Errorf("ry: got %v want %v", got["ry"], want)
	}
}

func TestParseMissingParameterErrors(t *testing.T) {
	resp := "C0QMid0001aa1234"
	_, err := Parse(resp, "aa####bb&&")
	if err == nil {
		t.Fatal("expected error for missing parameter bb")
	}
}

func TestEncodeRoundTripsThroughParse(t *testing.T) {
	var ctr IDCounter
	id := ctr.Next()
	cmd := Encode(ModuleMaster, "QM", id, []KV{
		{Key: "aa", Value: 1234},
		{Key: "bb", Value: []int{100, 200, 300}},
	})
	if cmd[:4] != "C0QM" {
		t.Fatalf("unexpected prefix: %q", cmd)
	}
	got, err := Parse(cmd, "aa####bb### (n)")
	if err != nil {
		t.Fatalf("Parse(encoded): %v", err)
	}
	if got["aa"] != 1234 {
		t.Errorf("aa: got %v", got["aa"])
	}
}

func TestIDCounterWrapsModulo256(t *testing.T) {
	var ctr IDCounter
	var last int
	for i := 0; i < 300; i++ {
		last = ctr.Next()
	}
	if last < 0 || last > 255 {
		t.Fatalf("id out of range: %d", last)
	}
	// 300 calls, 0-indexed: the 300th call (index 299) is 299 % 256 = 43.
	if last != 43 {
		t.Errorf("expected wraparound to 43, got %d", last)
	}
}

// The channelized error demux unifies per-channel trace codes into the
// taxonomy, and a SlaveError on the master is dropped once slave detail
// is present.
func TestFirmwareErrorChannelDemux(t *testing.T) {
	raw := map[Module]string{
		ModuleMaster: "99/00",
		"P1":         "76",
		"P2":         "75",
	}
	fe := NewFirmwareError(raw, "raw")
	if _, ok := fe.ByModule[ModuleMaster]; ok {
		t.Errorf("expected SlaveError on master to be dropped, got %+v", fe.ByModule[ModuleMaster])
	}
	tax := fe.ToTaxonomy()
	if tax.Kind != errs.KindChannelized {
		t.Fatalf("expected channelized kind, got %v", tax.Kind)
	}
	if tax.Channels[0] == nil || tax.Channels[0].Kind != errs.KindHasTip {
		t.Errorf("channel 0 (P1): expected HasTip, got %+v", tax.Channels[0])
	}
	if tax.Channels[1] == nil || tax.Channels[1].Kind != errs.KindNoTip {
		t.Errorf("channel 1 (P2): expected NoTip, got %+v", tax.Channels[1])
	}
}

// Parsing strips the 4-byte device+cmd identifier before matching:
// "xxxxaa1111bbrwccB0B" with "aa####bb&&cc***" decodes the decimal,
// char, and hex fields.
func TestParseLiteralMixedTypes(t *testing.T) {
	got, err := Parse("xxxxaa1111bbrwccB0B", "aa####bb&&cc***")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got["aa"] != 1111 {
		t.Errorf("aa: got %v, want 1111", got["aa"])
	}
	if got["bb"] != "rw" {
		t.Errorf("bb: got %v, want rw", got["bb"])
	}
	if got["cc"] != 0xB0B {
		t.Errorf("cc: got %v, want %d", got["cc"], 0xB0B)
	}
}

// A full raw error string demuxes clean modules away and keys the
// channelized result by 0-indexed channel.
func TestCheckErrorChannelDemuxFromRawString(t *testing.T) {
	fe := CheckError("X0er00/00 P1er08/76 P3er08/76")
	if fe == nil {
		t.Fatal("expected a firmware error")
	}
	tax := fe.ToTaxonomy()
	if tax.Kind != errs.KindChannelized {
		t.Fatalf("expected channelized kind, got %v", tax.Kind)
	}
	for _, ch := range []int{0, 2} {
		if tax.Channels[ch] == nil {
			t.Fatalf("expected an error on channel %d", ch)
		}
		if tax.Channels[ch].Kind != errs.KindHasTip {
			t.Errorf("channel %d: trace 76 (tip already picked up) maps to HasTip, got %v", ch, tax.Channels[ch].Kind)
		}
	}
	if len(tax.Channels) > 1 && tax.Channels[1] != nil {
		t.Errorf("channel 1 reported a clean 00/00 and must stay nil")
	}
}

// A master response attributes its own er pair to C0 even though the
// preceding characters are parameter text.
func TestCheckErrorAttributesMasterError(t *testing.T) {
	fe := CheckError("C0TPid0004er01/30")
	if fe == nil {
		t.Fatal("expected a firmware error")
	}
	me, ok := fe.ByModule[ModuleMaster]
	if !ok {
		t.Fatalf("expected the error on C0, got %+v", fe.ByModule)
	}
	if me.Kind != ErrCommandSyntax || me.Trace != 30 {
		t.Errorf("expected command syntax error with trace 30, got %+v", me)
	}
}

func TestCheckErrorNoErrorReturnsNil(t *testing.T) {
	if CheckError("C0QMid0001aa1234") != nil {
		t.Error("expected no error detected")
	}
}

func TestTraceToStringUnknownFallsBack(t *testing.T) {
	s := TraceToString(ModuleISWAP, 250)
	if s == "" {
		t.Error("expected non-empty fallback string")
	}
}
