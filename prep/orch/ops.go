// Package orch implements the Prep "Cavro" orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"

	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/prep/proto"
	"github.com/benchctl/labcore/res"
	"github.com/benchctl/labcore/res/tip"
	"github.com/benchctl/labcore/res/well"
)

// Command ids, fixed per endpoint. The pipettor/gantry namespace and
// the system namespace are independent: both have a command 1.
const (
	cmdAspirate                = 1
	cmdAspirateTadm            = 2
	cmdAspirateLld             = 3
	cmdAspirateLldTadm         = 4
	cmdDispense                = 5
	cmdDispenseLld             = 6
	cmdDispenseInitToWaste     = 7
	cmdPickUpTipsByID          = 8
	cmdPickUpTips              = 9
	cmdPickUpNeedlesByID       = 10
	cmdPickUpNeedles           = 11
	cmdDropTips                = 12
	cmdPickUpPlate             = 17
	cmdDropPlate               = 18
	cmdMovePlate               = 19
	cmdTransferPlate           = 20
	cmdReleasePlate            = 21
	cmdEmptyDispenser          = 23
	cmdMoveToPosition          = 26
	cmdMoveToPositionViaLane   = 27
	cmdMoveZUpToSafe           = 28
	cmdZSeekLldPosition        = 29

	sysInitialize              = 1
	sysPark                    = 3
	sysSpread                  = 4
	sysAddTipDefinition        = 12
	sysRemoveTipDefinition     = 13
	sysReadStorage             = 14
	sysWriteStorage            = 15
	sysPowerDownRequest        = 17
	sysConfirmPowerDown        = 18
	sysCancelPowerDown         = 19
	sysRemoveChannelPower      = 23
	sysRestoreChannelPower     = 24
	sysSetDeckLight            = 25
	sysGetDeckLight            = 26
	sysSuspendedPark           = 29
	sysMethodBegin             = 30
	sysMethodEnd               = 31
	sysMethodAbort             = 33
	sysIsParked                = 34
)

// Motion defaults observed from the device's own host software.
const (
	defaultFinalZ       = 123.87
	defaultPipetteZ     = 96.97
	pickupSeekSpeed     = 15.0
	dropSeekSpeed       = 10.0
	tipSeekClearanceMM  = 12.0
	dispenserIdleSpeed  = 250.0
)

// tipTypeFor maps the resource-model tip size onto the firmware's tip
// class.
func tipTypeFor(s tip.Size) TipType {
	switch s {
	case tip.SizeLowVolume:
		return TipTypeLow
	case tip.SizeHighVolume:
		return TipTypeHigh
	case tip.SizeStandardVolume:
		return TipTypeStandard
	default:
		return TipTypeNone
	}
}

// Initialize homes the device and sheds any tips the channels still
// carry at the positions tipDrop describes.
func (o *Orchestrator) Initialize(ctx context.Context, smart bool, tipDrop InitTipDropParameters) error {
	_, err := o.call(ctx, sysInitialize, SystemSource, SystemDestination,
		[]proto.DataFragment{boolF(smart), structF(tipDrop)})
	return err
}

// Park moves both channels to their home position.
func (o *Orchestrator) Park(ctx context.Context) error {
	_, err := o.call(ctx, sysPark, SystemSource, SystemDestination, nil)
	return err
}

// Spread separates the channels to their idle spacing.
func (o *Orchestrator) Spread(ctx context.Context) error {
	_, err := o.call(ctx, sysSpread, SystemSource, SystemDestination, nil)
	return err
}

// SuspendedPark parks via an explicit gantry move, for maintenance
// positions the plain Park cannot reach.
func (o *Orchestrator) SuspendedPark(ctx context.Context, move GantryMoveXYZParameters) error {
	_, err := o.call(ctx, sysSuspendedPark, SystemSource, SystemDestination,
		[]proto.DataFragment{structF(move)})
	return err
}

// cmdZTravelConfiguration lives in the travel-config endpoint's own
// command namespace.
const cmdZTravelConfiguration = 13

// ZTravelConfiguration selects how channels traverse in Z between
// positions.
func (o *Orchestrator) ZTravelConfiguration(ctx context.Context, mode ZTravelMode) error {
	_, err := o.call(ctx, cmdZTravelConfiguration, TravelConfigSource, TravelConfigDestination,
		[]proto.DataFragment{enumF(int(mode))})
	return err
}

// MethodBegin/MethodEnd/MethodAbort bracket a method run on the
// device's own scheduler.
func (o *Orchestrator) MethodBegin(ctx context.Context, automaticPause bool) error {
	_, err := o.call(ctx, sysMethodBegin, SystemSource, SystemDestination,
		[]proto.DataFragment{boolF(automaticPause)})
	return err
}

func (o *Orchestrator) MethodEnd(ctx context.Context) error {
	_, err := o.call(ctx, sysMethodEnd, SystemSource, SystemDestination, nil)
	return err
}

func (o *Orchestrator) MethodAbort(ctx context.Context) error {
	_, err := o.call(ctx, sysMethodAbort, SystemSource, SystemDestination, nil)
	return err
}

// IsParked queries whether both channels sit in their park position.
func (o *Orchestrator) IsParked(ctx context.Context) (bool, error) {
	frags, err := o.call(ctx, sysIsParked, SystemSource, SystemDestination, nil)
	if err != nil {
		return false, err
	}
	if len(frags) == 0 {
		return false, errs.Wrap(errs.KindProtocolError, "prep: is_parked: empty response", nil)
	}
	parked, ok := frags[0].Value.(bool)
	if !ok {
		if n, isInt := frags[0].Value.(int); isInt {
			return n != 0, nil
		}
		return false, errs.Wrap(errs.KindProtocolError, "prep: is_parked: unexpected fragment shape", nil)
	}
	return parked, nil
}

// PickUpTipOp pairs a tip spot with the channel that should take its
// tip.
type PickUpTipOp struct {
	Channel ChannelIndex
	Spot    *tip.Spot
	Offset  geo.Coordinate
	Tip     *tip.Tip
}

// PickUpTips picks up tips on up to 2 channels. All ops must carry the
// same tip type; finalZ is the traversal height the channels retract
// to afterwards (pass 0 for the default).
func (o *Orchestrator) PickUpTips(ctx context.Context, ops []PickUpTipOp, finalZ float64) error {
	if len(ops) == 0 || len(ops) > 2 {
		return errs.InvalidArgument("prep: pick_up_tips: %d ops, must be 1 or 2", len(ops))
	}
	first := ops[0].Tip
	for _, op := range ops {
		if op.Tip.Size != first.Size || op.Tip.HasFilter != first.HasFilter {
			return errs.InvalidArgument("prep: pick_up_tips: mixed tip types in one call")
		}
	}
	if finalZ == 0 {
		finalZ = defaultFinalZ
	}

	positions := make([]TipPositionParameters, 0, len(ops))
	for _, op := range ops {
		loc := op.Spot.AbsoluteAnchor(res.AnchorCenter, res.AnchorCenter, res.AnchorHigh).Add(op.Offset)
		z := loc.Z + op.Tip.TipLengthMM
		positions = append(positions, TipPositionParameters{
			Channel: op.Channel,
			X:       loc.X,
			Y:       loc.Y,
			Z:       z,
			ZSeek:   z + tipSeekClearanceMM,
		})
	}
	definition := TipPickupParameters{
		Volume:    first.MaxVolumeUl,
		Length:    first.TipLengthMM - first.FittingDepthMM,
		TipType:   tipTypeFor(first.Size),
		HasFilter: first.HasFilter,
	}

	_, err := o.call(ctx, cmdPickUpTips, GantrySource, PipettorDestination, []proto.DataFragment{
		structArrayF(positions),
		realF(finalZ),
		realF(pickupSeekSpeed),
		structF(definition),
		boolF(false), // TADM off during pickup
		realF(0),
		realF(dispenserIdleSpeed),
	})
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.Spot.Fill(op.Tip); err != nil {
			return err
		}
	}
	return nil
}

// DropTipOp mirrors PickUpTipOp for a drop; Spot may be nil to drop
// over the waste at the op's offset alone.
type DropTipOp struct {
	Channel ChannelIndex
	Spot    *tip.Spot
	Offset  geo.Coordinate
}

// DropTips drops tips on up to 2 channels.
func (o *Orchestrator) DropTips(ctx context.Context, ops []DropTipOp, finalZ float64) error {
	if len(ops) == 0 || len(ops) > 2 {
		return errs.InvalidArgument("prep: drop_tips: %d ops, must be 1 or 2", len(ops))
	}
	if finalZ == 0 {
		finalZ = defaultFinalZ
	}

	drops := make([]TipDropParameters, 0, len(ops))
	for _, op := range ops {
		loc := op.Offset
		var tipLen float64
		if op.Spot != nil {
			loc = op.Spot.AbsoluteAnchor(res.AnchorCenter, res.AnchorCenter, res.AnchorHigh).Add(op.Offset)
			if t, ok := op.Spot.GetTip(); ok {
				tipLen = t.TipLengthMM
			}
		}
		z := loc.Z + tipLen
		drops = append(drops, TipDropParameters{
			Channel:  op.Channel,
			X:        loc.X,
			Y:        loc.Y,
			Z:        z,
			ZSeek:    z + tipSeekClearanceMM,
			DropType: DropFixedHeight,
		})
	}

	_, err := o.call(ctx, cmdDropTips, GantrySource, PipettorDestination, []proto.DataFragment{
		structArrayF(drops),
		realF(finalZ),
		realF(dropSeekSpeed),
		realF(0), // tip roll-off distance
	})
	if err != nil {
		return err
	}
	for _, op := range ops {
		if op.Spot != nil {
			if _, err := op.Spot.Empty(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AspirateOp is one Prep aspirate, addressed to a single channel. The
// well must be round (equal X/Y footprint): the firmware models the
// container as a tube with a cone bottom.
type AspirateOp struct {
	Channel          ChannelIndex
	Well             *well.Well
	Offset           geo.Coordinate
	VolumeUl         float64
	FlowRateUlPerS   float64
	BlowOutAirVolume float64
}

// Aspirate aspirates ops, one per channel (at most 2). zFinal is the
// retract height after the transfer (pass 0 for the default).
func (o *Orchestrator) Aspirate(ctx context.Context, ops []AspirateOp, zFinal float64) error {
	bundles, err := o.aspirateBundles(ops, zFinal)
	if err != nil {
		return err
	}
	if _, err := o.call(ctx, cmdAspirate, GantrySource, PipettorDestination,
		[]proto.DataFragment{structArrayF(bundles)}); err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.Well.RemoveVolume(op.VolumeUl); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) aspirateBundles(ops []AspirateOp, zFinal float64) ([]AspirateBundle, error) {
	if len(ops) == 0 || len(ops) > 2 {
		return nil, errs.InvalidArgument("prep: aspirate: %d ops, must be 1 or 2", len(ops))
	}
	if zFinal == 0 {
		zFinal = defaultPipetteZ
	}
	bundles := make([]AspirateBundle, 0, len(ops))
	for i, op := range ops {
		if op.VolumeUl <= 0 {
			return nil, errs.InvalidArgument("prep: aspirate: op %d has non-positive volume %.3f", i, op.VolumeUl)
		}
		if op.Well.SizeX != op.Well.SizeY {
			return nil, errs.InvalidArgument("prep: aspirate: well %q is not round (%.1f x %.1f)",
				op.Well.Name, op.Well.SizeX, op.Well.SizeY)
		}
		loc := op.Well.AbsoluteAnchor(res.AnchorCenter, res.AnchorCenter, res.AnchorLow).Add(op.Offset)
		flowRate := op.FlowRateUlPerS
		if flowRate == 0 {
			flowRate = 100
		}
		bundles = append(bundles, AspirateBundle{
			Channel: op.Channel,
			Aspirate: AspirateParameters{
				X:             loc.X,
				Y:             loc.Y,
				BlowoutVolume: op.BlowOutAirVolume,
			},
			Common: CommonParameters{
				Empty:            true,
				ZMinimum:         -5.03,
				ZFinal:           zFinal,
				ZLiquidExitSpeed: 2.0,
				LiquidVolume:     op.VolumeUl,
				LiquidSpeed:      flowRate,
				TubeRadius:       op.Well.SizeX / 2,
				SettlingTime:     1.0,
			},
			NoLld: NoLldParameters{
				ZFluid:              94.97,
				ZAir:                96.97,
				ZBottomSearchOffset: 2.0,
			},
			Mix:        DefaultMix(),
			Adc:        DefaultAdc(),
			Monitoring: DefaultAspirateMonitoring(),
		})
	}
	return bundles, nil
}

// DispenseOp mirrors AspirateOp for a dispense.
type DispenseOp struct {
	Channel        ChannelIndex
	Well           *well.Well
	Offset         geo.Coordinate
	VolumeUl       float64
	Liquid         string
	FlowRateUlPerS float64
}

// Dispense dispenses ops, one per channel (at most 2).
func (o *Orchestrator) Dispense(ctx context.Context, ops []DispenseOp, zFinal float64) error {
	if len(ops) == 0 || len(ops) > 2 {
		return errs.InvalidArgument("prep: dispense: %d ops, must be 1 or 2", len(ops))
	}
	if zFinal == 0 {
		zFinal = defaultPipetteZ
	}
	bundles := make([]DispenseBundle, 0, len(ops))
	for i, op := range ops {
		if op.VolumeUl <= 0 {
			return errs.InvalidArgument("prep: dispense: op %d has non-positive volume %.3f", i, op.VolumeUl)
		}
		if op.Well.SizeX != op.Well.SizeY {
			return errs.InvalidArgument("prep: dispense: well %q is not round (%.1f x %.1f)",
				op.Well.Name, op.Well.SizeX, op.Well.SizeY)
		}
		loc := op.Well.AbsoluteAnchor(res.AnchorCenter, res.AnchorCenter, res.AnchorLow).Add(op.Offset)
		flowRate := op.FlowRateUlPerS
		if flowRate == 0 {
			flowRate = 100
		}
		bundles = append(bundles, DispenseBundle{
			Channel: op.Channel,
			Dispense: DispenseParameters{
				X:           loc.X,
				Y:           loc.Y,
				CutoffSpeed: 100.0,
			},
			Common: CommonParameters{
				Empty:            true,
				ZMinimum:         -5.03,
				ZFinal:           zFinal,
				ZLiquidExitSpeed: 2.0,
				LiquidVolume:     op.VolumeUl,
				LiquidSpeed:      flowRate,
				TubeRadius:       op.Well.SizeX / 2,
			},
			NoLld: NoLldParameters{
				ZFluid:              94.97,
				ZAir:                99.08,
				ZBottomSearchOffset: 2.0,
			},
			Mix:  DefaultMix(),
			Adc:  DefaultAdc(),
			Tadm: DefaultTadm(),
		})
	}
	if _, err := o.call(ctx, cmdDispense, GantrySource, PipettorDestination,
		[]proto.DataFragment{structArrayF(bundles)}); err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.Well.AddLiquid(op.Liquid, op.VolumeUl); err != nil {
			return err
		}
	}
	return nil
}

// MoveToPosition moves the gantry and each listed channel directly to
// the given coordinates, without any pipetting action.
func (o *Orchestrator) MoveToPosition(ctx context.Context, move GantryMoveXYZParameters) error {
	_, err := o.call(ctx, cmdMoveToPosition, GantrySource, PipettorDestination,
		[]proto.DataFragment{structF(move)})
	return err
}

// MoveToPositionViaLane is MoveToPosition routed through the deck's
// collision-free travel lane.
func (o *Orchestrator) MoveToPositionViaLane(ctx context.Context, move GantryMoveXYZParameters) error {
	_, err := o.call(ctx, cmdMoveToPositionViaLane, GantrySource, PipettorDestination,
		[]proto.DataFragment{structF(move)})
	return err
}

// MoveZUpToSafe retracts the listed channels to their safe travel
// height.
func (o *Orchestrator) MoveZUpToSafe(ctx context.Context, channels []ChannelIndex) error {
	_, err := o.call(ctx, cmdMoveZUpToSafe, GantrySource, PipettorDestination,
		[]proto.DataFragment{channelEnumArray(channels)})
	return err
}

// ZSeekLLDPosition runs a liquid-surface seek on each listed channel
// and returns the raw result fragments (per-channel seek results).
func (o *Orchestrator) ZSeekLLDPosition(ctx context.Context, seeks []LLDChannelSeekParameters) ([]proto.DataFragment, error) {
	return o.call(ctx, cmdZSeekLldPosition, PipettorSource, PipettorDestination,
		[]proto.DataFragment{structArrayF(seeks)})
}

// plateTopCenter computes the XYZCoord of target's top face center.
func plateTopCenter(target *res.Resource) XYZCoord {
	loc := target.AbsoluteAnchor(res.AnchorCenter, res.AnchorCenter, res.AnchorHigh)
	return XYZCoord{X: loc.X, Y: loc.Y, Z: loc.Z}
}

func plateDims(target *res.Resource) PlateDimensions {
	extX, extY, extZ := target.AbsoluteAABB()
	return PlateDimensions{Length: extX, Width: extY, Height: extZ}
}

// PlateGrip carries the gripper tuning for plate transport.
type PlateGrip struct {
	ClearanceY   float64
	GripSpeedY   float64
	GripDistance float64
	GripHeight   float64
}

// PickUpPlate grips target at its top center.
func (o *Orchestrator) PickUpPlate(ctx context.Context, target *res.Resource, grip PlateGrip) error {
	_, err := o.call(ctx, cmdPickUpPlate, PipettorSource, PipettorDestination, []proto.DataFragment{
		structF(plateTopCenter(target)),
		structF(plateDims(target)),
		realF(grip.ClearanceY),
		realF(grip.GripSpeedY),
		realF(grip.GripDistance),
		realF(grip.GripHeight),
	})
	return err
}

// DropPlate places the currently-gripped plate at target.
func (o *Orchestrator) DropPlate(ctx context.Context, target *res.Resource, clearanceY float64, accelScaleX int) error {
	if accelScaleX == 0 {
		accelScaleX = 100
	}
	_, err := o.call(ctx, cmdDropPlate, PipettorSource, PipettorDestination, []proto.DataFragment{
		structF(plateTopCenter(target)),
		realF(clearanceY),
		u8F(accelScaleX),
	})
	return err
}

// MovePlate carries the gripped plate to target without releasing it.
func (o *Orchestrator) MovePlate(ctx context.Context, target *res.Resource, accelScaleX int) error {
	if accelScaleX == 0 {
		accelScaleX = 100
	}
	_, err := o.call(ctx, cmdMovePlate, PipettorSource, PipettorDestination, []proto.DataFragment{
		structF(plateTopCenter(target)),
		u8F(accelScaleX),
	})
	return err
}

// TransferPlate is a combined pick-up/move/drop in one firmware
// command.
func (o *Orchestrator) TransferPlate(ctx context.Context, source, dest *res.Resource, grip PlateGrip, accelScaleX int) error {
	if accelScaleX == 0 {
		accelScaleX = 100
	}
	_, err := o.call(ctx, cmdTransferPlate, PipettorSource, PipettorDestination, []proto.DataFragment{
		structF(plateTopCenter(source)),
		structF(plateTopCenter(dest)),
		structF(plateDims(source)),
		realF(grip.ClearanceY),
		realF(grip.GripSpeedY),
		realF(grip.GripDistance),
		realF(grip.GripHeight),
		u8F(accelScaleX),
	})
	return err
}

// ReleasePlate opens the gripper where it stands.
func (o *Orchestrator) ReleasePlate(ctx context.Context) error {
	_, err := o.call(ctx, cmdReleasePlate, PipettorSource, PipettorDestination, nil)
	return err
}

// EmptyDispenser purges the listed channels' dispensers to waste.
func (o *Orchestrator) EmptyDispenser(ctx context.Context, channels []ChannelIndex) error {
	_, err := o.call(ctx, cmdEmptyDispenser, PipettorSource, PipettorDestination,
		[]proto.DataFragment{channelEnumArray(channels)})
	return err
}

func channelEnumArray(channels []ChannelIndex) proto.DataFragment {
	vals := make([]int, len(channels))
	for i, c := range channels {
		vals[i] = int(c)
	}
	return proto.DataFragment{Type: proto.TypeEnumArray, Value: vals}
}

// AddTipDefinition registers def with the device's tip table.
func (o *Orchestrator) AddTipDefinition(ctx context.Context, def TipDefinition) error {
	_, err := o.call(ctx, sysAddTipDefinition, SystemSource, SystemDestination,
		[]proto.DataFragment{structF(def)})
	return err
}

// RemoveTipDefinition removes the tip definition with the given id.
func (o *Orchestrator) RemoveTipDefinition(ctx context.Context, id int) error {
	_, err := o.call(ctx, sysRemoveTipDefinition, SystemSource, SystemDestination,
		[]proto.DataFragment{enumF(id)})
	return err
}

// ReadStorage reads length bytes of the device's persistent storage at
// offset.
func (o *Orchestrator) ReadStorage(ctx context.Context, offset, length int) ([]byte, error) {
	frags, err := o.call(ctx, sysReadStorage, SystemSource, SystemDestination,
		[]proto.DataFragment{u32F(offset), u32F(length)})
	if err != nil {
		return nil, err
	}
	if len(frags) == 0 {
		return nil, errs.Wrap(errs.KindProtocolError, "prep: read_storage: empty response", nil)
	}
	arr, ok := frags[0].Value.([]int)
	if !ok {
		return nil, errs.Wrap(errs.KindProtocolError, "prep: read_storage: unexpected fragment shape", nil)
	}
	out := make([]byte, len(arr))
	for i, v := range arr {
		out[i] = byte(v)
	}
	return out, nil
}

// WriteStorage writes data to the device's persistent storage at
// offset.
func (o *Orchestrator) WriteStorage(ctx context.Context, offset int, data []byte) error {
	ints := make([]int, len(data))
	for i, b := range data {
		ints[i] = int(b)
	}
	_, err := o.call(ctx, sysWriteStorage, SystemSource, SystemDestination, []proto.DataFragment{
		u32F(offset),
		{Type: proto.TypeUInt8Array, Value: ints},
	})
	return err
}

// PowerDownRequest/ConfirmPowerDown/CancelPowerDown run the device's
// two-phase shutdown handshake.
func (o *Orchestrator) PowerDownRequest(ctx context.Context) error {
	_, err := o.call(ctx, sysPowerDownRequest, SystemSource, SystemDestination, nil)
	return err
}

func (o *Orchestrator) ConfirmPowerDown(ctx context.Context) error {
	_, err := o.call(ctx, sysConfirmPowerDown, SystemSource, SystemDestination, nil)
	return err
}

func (o *Orchestrator) CancelPowerDown(ctx context.Context) error {
	_, err := o.call(ctx, sysCancelPowerDown, SystemSource, SystemDestination, nil)
	return err
}

// RemoveChannelPowerForHeadSwap/RestoreChannelPowerAfterHeadSwap
// de-energize and re-energize the channel drives around a manual head
// change.
func (o *Orchestrator) RemoveChannelPowerForHeadSwap(ctx context.Context) error {
	_, err := o.call(ctx, sysRemoveChannelPower, SystemSource, SystemDestination, nil)
	return err
}

func (o *Orchestrator) RestoreChannelPowerAfterHeadSwap(ctx context.Context, delayMs int) error {
	_, err := o.call(ctx, sysRestoreChannelPower, SystemSource, SystemDestination,
		[]proto.DataFragment{u32F(delayMs)})
	return err
}

// SetDeckLight sets the deck illumination LED color. The command
// originates from its own endpoint, unlike the rest of the system
// commands.
func (o *Orchestrator) SetDeckLight(ctx context.Context, white, red, green, blue uint8) error {
	_, err := o.call(ctx, sysSetDeckLight, DeckLightSource, SystemDestination, []proto.DataFragment{
		u8F(int(white)), u8F(int(red)), u8F(int(green)), u8F(int(blue)),
	})
	return err
}

// GetDeckLight reads back the deck illumination LED color.
func (o *Orchestrator) GetDeckLight(ctx context.Context) (white, red, green, blue uint8, err error) {
	frags, err := o.call(ctx, sysGetDeckLight, SystemSource, SystemDestination, nil)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(frags) != 4 {
		return 0, 0, 0, 0, errs.Wrap(errs.KindProtocolError, "prep: get_deck_light: want 4 fragments", nil)
	}
	vals := make([]uint8, 4)
	for i, f := range frags {
		n, ok := f.Value.(int)
		if !ok {
			return 0, 0, 0, 0, errs.Wrap(errs.KindProtocolError, "prep: get_deck_light: unexpected fragment shape", nil)
		}
		vals[i] = uint8(n)
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
