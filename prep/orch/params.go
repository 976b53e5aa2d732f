// Package orch implements the Prep "Cavro" orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import "github.com/benchctl/labcore/prep/proto"

// The Prep firmware takes its command parameters as nested structure
// fragments. Each type below mirrors one firmware structure: its
// fragments() method renders the fields in wire order, always leading
// with the default_values flag that tells the firmware to ignore the
// rest and use its own defaults.

// ChannelIndex identifies one of the pipetting channels on the gantry.
type ChannelIndex int

const (
	ChannelInvalid ChannelIndex = 0
	ChannelFront   ChannelIndex = 1
	ChannelRear    ChannelIndex = 2
	ChannelMPH     ChannelIndex = 3
)

// TipDropType selects the release strategy for a tip drop.
type TipDropType int

const (
	DropFixedHeight TipDropType = 0
	DropStall       TipDropType = 1
	DropCLLDSeek    TipDropType = 2
)

// TipType is the firmware's tip class for pickup parameter vectors.
type TipType int

const (
	TipTypeNone     TipType = 0
	TipTypeLow      TipType = 1
	TipTypeStandard TipType = 2
	TipTypeHigh     TipType = 3
)

// ZTravelMode selects how channels traverse in Z between positions.
type ZTravelMode int

const (
	ZLimitTraverse     ZTravelMode = 0
	AdjustableTraverse ZTravelMode = 1
	CalculatedTraverse ZTravelMode = 2
	TerrainFollow      ZTravelMode = 3
)

// LldSensitivity tunes the capacitive/pressure liquid-level detectors.
type LldSensitivity int

const (
	LldSensitivityLow        LldSensitivity = 0
	LldSensitivityMediumLow  LldSensitivity = 1
	LldSensitivityMediumHigh LldSensitivity = 2
	LldSensitivityHigh       LldSensitivity = 3
	LldSensitivityTool       LldSensitivity = 4
)

// DetectMode selects which detector(s) must agree for an LLD hit.
type DetectMode int

const (
	DetectAny       DetectMode = 0
	DetectPrimary   DetectMode = 1
	DetectSecondary DetectMode = 2
	DetectAll       DetectMode = 3
)

// TadmRecordingMode controls pressure-curve recording during transfers.
type TadmRecordingMode int

const (
	TadmNoRecording TadmRecordingMode = 0
	TadmErrors      TadmRecordingMode = 1
	TadmAll         TadmRecordingMode = 2
)

type structured interface {
	fragments() []proto.DataFragment
}

func boolF(v bool) proto.DataFragment {
	return proto.DataFragment{Type: proto.TypeBool, Value: v2i(v)}
}
func realF(v float64) proto.DataFragment {
	return proto.DataFragment{Type: proto.TypeReal32, Value: v}
}
func enumF(v int) proto.DataFragment  { return proto.DataFragment{Type: proto.TypeEnum, Value: v} }
func u8F(v int) proto.DataFragment    { return proto.DataFragment{Type: proto.TypeUInt8, Value: v} }
func u16F(v int) proto.DataFragment   { return proto.DataFragment{Type: proto.TypeUInt16, Value: v} }
func u32F(v int) proto.DataFragment   { return proto.DataFragment{Type: proto.TypeUInt32, Value: v} }
func strF(v string) proto.DataFragment {
	return proto.DataFragment{Type: proto.TypeString, Value: v}
}

func v2i(v bool) int {
	if v {
		return 1
	}
	return 0
}

// structF renders p as a Structure fragment.
func structF(p structured) proto.DataFragment {
	return proto.DataFragment{Type: proto.TypeStructure, Value: p.fragments()}
}

// structArrayF renders ps as a StructureArray fragment.
func structArrayF[T structured](ps []T) proto.DataFragment {
	groups := make([][]proto.DataFragment, len(ps))
	for i, p := range ps {
		groups[i] = p.fragments()
	}
	return proto.DataFragment{Type: proto.TypeStructureArray, Value: groups}
}

// XYZCoord is an absolute gantry-space point in mm.
type XYZCoord struct {
	Defaults bool
	X, Y, Z  float64
}

func (p XYZCoord) fragments() []proto.DataFragment {
	return []proto.DataFragment{boolF(p.Defaults), realF(p.X), realF(p.Y), realF(p.Z)}
}

// PlateDimensions describes the gripped labware's outer box in mm.
type PlateDimensions struct {
	Defaults              bool
	Length, Width, Height float64
}

func (p PlateDimensions) fragments() []proto.DataFragment {
	return []proto.DataFragment{boolF(p.Defaults), realF(p.Length), realF(p.Width), realF(p.Height)}
}

// TipPositionParameters addresses one channel's tip pickup target.
type TipPositionParameters struct {
	Defaults bool
	Channel  ChannelIndex
	X, Y, Z  float64
	ZSeek    float64
}

func (p TipPositionParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Channel)),
		realF(p.X), realF(p.Y), realF(p.Z), realF(p.ZSeek),
	}
}

// TipPickupParameters describes the consumable being picked up.
type TipPickupParameters struct {
	Defaults  bool
	Volume    float64
	Length    float64
	TipType   TipType
	HasFilter bool
	IsNeedle  bool
	IsTool    bool
}

func (p TipPickupParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), realF(p.Volume), realF(p.Length), enumF(int(p.TipType)),
		boolF(p.HasFilter), boolF(p.IsNeedle), boolF(p.IsTool),
	}
}

// TipDropParameters addresses one channel's tip drop target.
type TipDropParameters struct {
	Defaults bool
	Channel  ChannelIndex
	X, Y, Z  float64
	ZSeek    float64
	DropType TipDropType
}

func (p TipDropParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Channel)),
		realF(p.X), realF(p.Y), realF(p.Z), realF(p.ZSeek), enumF(int(p.DropType)),
	}
}

// InitDropChannelParameters is the per-channel leg of the initialize
// command's tip-disposal sweep.
type InitDropChannelParameters struct {
	Defaults   bool
	Channel    ChannelIndex
	Y          float64
	ZSeek      float64
	ZTip       float64
	ZFinal     float64
	ZSeekSpeed float64
	DropType   TipDropType
}

func (p InitDropChannelParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Channel)),
		realF(p.Y), realF(p.ZSeek), realF(p.ZTip), realF(p.ZFinal), realF(p.ZSeekSpeed),
		enumF(int(p.DropType)),
	}
}

// InitTipDropParameters tells initialize where to shed any tips the
// channels may still be carrying.
type InitTipDropParameters struct {
	Defaults        bool
	X               float64
	RolloffDistance float64
	Channels        []InitDropChannelParameters
}

func (p InitTipDropParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), realF(p.X), realF(p.RolloffDistance), structArrayF(p.Channels),
	}
}

// DefaultInitTipDrop is the stock disposal sweep over the waste chute.
func DefaultInitTipDrop() InitTipDropParameters {
	return InitTipDropParameters{Defaults: true, X: 287.0, RolloffDistance: 3.0}
}

// ChannelYZMoveParameters is one channel's target within a gantry move.
type ChannelYZMoveParameters struct {
	Defaults bool
	Channel  ChannelIndex
	Y, Z     float64
}

func (p ChannelYZMoveParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Channel)), realF(p.Y), realF(p.Z),
	}
}

// GantryMoveXYZParameters moves the gantry to an X position and each
// listed channel to its own Y/Z.
type GantryMoveXYZParameters struct {
	Defaults bool
	GantryX  float64
	Axes     []ChannelYZMoveParameters
}

func (p GantryMoveXYZParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{boolF(p.Defaults), realF(p.GantryX), structArrayF(p.Axes)}
}

// AspirateParameters is the aspirate-specific leg of an aspirate
// parameter bundle.
type AspirateParameters struct {
	Defaults      bool
	X, Y          float64
	PrewetVolume  float64
	BlowoutVolume float64
}

func (p AspirateParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), realF(p.X), realF(p.Y), realF(p.PrewetVolume), realF(p.BlowoutVolume),
	}
}

// DispenseParameters is the dispense-specific leg of a dispense
// parameter bundle.
type DispenseParameters struct {
	Defaults       bool
	X, Y           float64
	StopBackVolume float64
	CutoffSpeed    float64
}

func (p DispenseParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), realF(p.X), realF(p.Y), realF(p.StopBackVolume), realF(p.CutoffSpeed),
	}
}

// CommonParameters carries the liquid-movement fields shared by
// aspirate and dispense.
type CommonParameters struct {
	Defaults           bool
	Empty              bool
	ZMinimum           float64
	ZFinal             float64
	ZLiquidExitSpeed   float64
	LiquidVolume       float64
	LiquidSpeed        float64
	TransportAirVolume float64
	TubeRadius         float64
	ConeHeight         float64
	ConeBottomRadius   float64
	SettlingTime       float64
	AdditionalProbes   int
}

func (p CommonParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), boolF(p.Empty),
		realF(p.ZMinimum), realF(p.ZFinal), realF(p.ZLiquidExitSpeed),
		realF(p.LiquidVolume), realF(p.LiquidSpeed), realF(p.TransportAirVolume),
		realF(p.TubeRadius), realF(p.ConeHeight), realF(p.ConeBottomRadius),
		realF(p.SettlingTime), u32F(p.AdditionalProbes),
	}
}

// NoLldParameters positions a transfer that trusts its Z heights
// instead of seeking the liquid surface.
type NoLldParameters struct {
	Defaults            bool
	ZFluid              float64
	ZAir                float64
	BottomSearch        bool
	ZBottomSearchOffset float64
	ZBottomOffset       float64
}

func (p NoLldParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), realF(p.ZFluid), realF(p.ZAir), boolF(p.BottomSearch),
		realF(p.ZBottomSearchOffset), realF(p.ZBottomOffset),
	}
}

// LldParameters positions a surface-seeking transfer.
type LldParameters struct {
	Defaults     bool
	ZSeek        float64
	ZSeekSpeed   float64
	ZSubmerge    float64
	ZOutOfLiquid float64
}

func (p LldParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), realF(p.ZSeek), realF(p.ZSeekSpeed), realF(p.ZSubmerge), realF(p.ZOutOfLiquid),
	}
}

// CLldParameters tunes the capacitive detector for an LLD transfer.
type CLldParameters struct {
	Defaults        bool
	Sensitivity     LldSensitivity
	ClotCheckEnable bool
	ZClotCheck      float64
	DetectMode      DetectMode
}

func (p CLldParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Sensitivity)), boolF(p.ClotCheckEnable),
		realF(p.ZClotCheck), enumF(int(p.DetectMode)),
	}
}

// MixParameters describes an optional in-well mix cycle.
type MixParameters struct {
	Defaults bool
	ZOffset  float64
	Volume   float64
	Cycles   int
	Speed    float64
}

func (p MixParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), realF(p.ZOffset), realF(p.Volume), u8F(p.Cycles), realF(p.Speed),
	}
}

// DefaultMix is the firmware-defaults mix bundle (no mixing).
func DefaultMix() MixParameters {
	return MixParameters{Defaults: true, Speed: 250.0}
}

// AdcParameters enables automatic dispenser-volume checking.
type AdcParameters struct {
	Defaults      bool
	Errors        bool
	MaximumVolume float64
}

func (p AdcParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{boolF(p.Defaults), boolF(p.Errors), realF(p.MaximumVolume)}
}

// DefaultAdc is the firmware-defaults ADC bundle.
func DefaultAdc() AdcParameters {
	return AdcParameters{Defaults: true, Errors: true, MaximumVolume: 4.5}
}

// TadmParameters selects pressure-curve recording for a transfer.
type TadmParameters struct {
	Defaults        bool
	LimitCurveIndex int
	RecordingMode   TadmRecordingMode
}

func (p TadmParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{boolF(p.Defaults), u16F(p.LimitCurveIndex), enumF(int(p.RecordingMode))}
}

// DefaultTadm is the firmware-defaults TADM bundle (record errors only).
func DefaultTadm() TadmParameters {
	return TadmParameters{Defaults: true, RecordingMode: TadmErrors}
}

// AspirateMonitoringParameters tunes clot/blockage detection during an
// aspirate.
type AspirateMonitoringParameters struct {
	Defaults            bool
	CLldEnable          bool
	PLldEnable          bool
	MinimumDifferential int
	MaximumDifferential int
	ClotThreshold       int
}

func (p AspirateMonitoringParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), boolF(p.CLldEnable), boolF(p.PLldEnable),
		u16F(p.MinimumDifferential), u16F(p.MaximumDifferential), u16F(p.ClotThreshold),
	}
}

// DefaultAspirateMonitoring is the firmware-defaults monitoring bundle.
func DefaultAspirateMonitoring() AspirateMonitoringParameters {
	return AspirateMonitoringParameters{
		Defaults: true, MinimumDifferential: 30, MaximumDifferential: 30, ClotThreshold: 20,
	}
}

// AspirateBundle is the full per-channel parameter vector for a
// fixed-height aspirate with monitoring.
type AspirateBundle struct {
	Defaults   bool
	Channel    ChannelIndex
	Aspirate   AspirateParameters
	Common     CommonParameters
	NoLld      NoLldParameters
	Mix        MixParameters
	Adc        AdcParameters
	Monitoring AspirateMonitoringParameters
}

func (p AspirateBundle) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Channel)),
		structF(p.Aspirate), structF(p.Common), structF(p.NoLld),
		structF(p.Mix), structF(p.Adc), structF(p.Monitoring),
	}
}

// DispenseBundle is the full per-channel parameter vector for a
// fixed-height dispense.
type DispenseBundle struct {
	Defaults bool
	Channel  ChannelIndex
	Dispense DispenseParameters
	Common   CommonParameters
	NoLld    NoLldParameters
	Mix      MixParameters
	Adc      AdcParameters
	Tadm     TadmParameters
}

func (p DispenseBundle) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Channel)),
		structF(p.Dispense), structF(p.Common), structF(p.NoLld),
		structF(p.Mix), structF(p.Adc), structF(p.Tadm),
	}
}

// LLDChannelSeekParameters drives one channel's liquid-surface seek.
type LLDChannelSeekParameters struct {
	Defaults       bool
	Channel        ChannelIndex
	SeekX, SeekY   float64
	SeekVelocityZ  float64
	SeekHeight     float64
	MinSeekHeight  float64
	FinalPositionZ float64
	Sensitivity    LldSensitivity
	DetectMode     DetectMode
}

func (p LLDChannelSeekParameters) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), enumF(int(p.Channel)),
		realF(p.SeekX), realF(p.SeekY), realF(p.SeekVelocityZ),
		realF(p.SeekHeight), realF(p.MinSeekHeight), realF(p.FinalPositionZ),
		enumF(int(p.Sensitivity)), enumF(int(p.DetectMode)),
	}
}

// TipDefinition registers a reusable tip/needle description with the
// device's tip table.
type TipDefinition struct {
	Defaults  bool
	ID        int
	Volume    float64
	Length    float64
	TipType   TipType
	HasFilter bool
	IsNeedle  bool
	IsTool    bool
	Label     string
}

func (p TipDefinition) fragments() []proto.DataFragment {
	return []proto.DataFragment{
		boolF(p.Defaults), u8F(p.ID), realF(p.Volume), realF(p.Length), enumF(int(p.TipType)),
		boolF(p.HasFilter), boolF(p.IsNeedle), boolF(p.IsTool), strF(p.Label),
	}
}
