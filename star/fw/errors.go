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

// ErrorKind enumerates the main-error codes a STAR module reports,
// 1-33 and 99-113.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrCommandSyntax
	ErrHardware
	ErrCommandNotCompleted
	ErrClotDetected
	ErrBarcodeUnreadable
	ErrTooLittleLiquid
	ErrTipAlreadyFitted
	ErrNoTip
	ErrNoCarrier
	ErrNotCompleted
	ErrDispenseWithPressureLLD
	ErrNoTeachInSignal
	ErrLoadingTray
	ErrSequencedAspirationWithPressureLLD
	ErrNotAllowedParameterCombination
	ErrCoverClose
	ErrAspiration
	ErrWashFluidOrWaste
	ErrIncubation
	ErrTADMMeasurement
	ErrNoElement
	ErrElementStillHolding
	ErrElementLost
	ErrIllegalTargetPlatePosition
	ErrIllegalUserAccess
	ErrPositionNotReachable
	ErrUnexpectedLLD
	ErrAreaAlreadyOccupied
	ErrImpossibleToOccupyArea
	ErrAntiDropControl
	ErrDecapper
	ErrDecapperHandling
	ErrSlave
	ErrWrongCarrier
	ErrNoCarrierBarcode
	ErrLiquidLevel
	ErrNotDetected
	ErrNotAspirated
	ErrImproperDispensation
	ErrNoLabware
	ErrUnexpectedLabware
	ErrWrongLabware
	ErrBarcodeMask
	ErrBarcodeNotUnique
	ErrBarcodeAlreadyUsed
	ErrKitLotExpired
	ErrDelimiter
)

var errorKindNames = map[ErrorKind]string{
	ErrCommandSyntax:                      "command syntax error",
	ErrHardware:                           "hardware error",
	ErrCommandNotCompleted:                "command not completed",
	ErrClotDetected:                       "clot detected",
	ErrBarcodeUnreadable:                  "barcode unreadable",
	ErrTooLittleLiquid:                    "too little liquid",
	ErrTipAlreadyFitted:                   "tip already fitted",
	ErrNoTip:                              "no tips",
	ErrNoCarrier:                          "no carrier",
	ErrNotCompleted:                       "not completed",
	ErrDispenseWithPressureLLD:            "dispense with pressure LLD",
	ErrNoTeachInSignal:                    "no teach in signal",
	ErrLoadingTray:                        "loading tray error",
	ErrSequencedAspirationWithPressureLLD: "sequenced aspiration with pressure LLD",
	ErrNotAllowedParameterCombination:     "not allowed parameter combination",
	ErrCoverClose:                         "cover close error",
	ErrAspiration:                         "aspiration error",
	ErrWashFluidOrWaste:                   "wash fluid or waste error",
	ErrIncubation:                         "incubation error",
	ErrTADMMeasurement:                    "TADM measurement error",
	ErrNoElement:                          "no element",
	ErrElementStillHolding:                "element still holding",
	ErrElementLost:                        "element lost",
	ErrIllegalTargetPlatePosition:         "illegal target plate position",
	ErrIllegalUserAccess:                  "illegal user access",
	ErrPositionNotReachable:               "position not reachable",
	ErrUnexpectedLLD:                      "unexpected LLD",
	ErrAreaAlreadyOccupied:                "area already occupied",
	ErrImpossibleToOccupyArea:             "impossible to occupy area",
	ErrAntiDropControl:                    "anti drop control error",
	ErrDecapper:                           "decapper error",
	ErrDecapperHandling:                   "decapper handling error",
	ErrSlave:                              "slave error",
	ErrWrongCarrier:                       "wrong carrier barcode",
	ErrNoCarrierBarcode:                   "no carrier barcode",
	ErrLiquidLevel:                        "liquid level error",
	ErrNotDetected:                        "carrier not detected",
	ErrNotAspirated:                       "dispense volume exceeds aspirated volume",
	ErrImproperDispensation:               "improper dispensation",
	ErrNoLabware:                          "no labware detected",
	ErrUnexpectedLabware:                  "unexpected labware barcode",
	ErrWrongLabware:                       "wrong labware barcode",
	ErrBarcodeMask:                        "barcode does not match mask",
	ErrBarcodeNotUnique:                   "barcode not unique",
	ErrBarcodeAlreadyUsed:                 "barcode already used",
	ErrKitLotExpired:                      "kit lot expired",
	ErrDelimiter:                          "barcode contains delimiter character",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return "unknown Hamilton error"
}

// errorCodeToKind maps a module's main-error code to its ErrorKind.
var errorCodeToKind = map[int]ErrorKind{
	1:  ErrCommandSyntax,
	2:  ErrHardware,
	3:  ErrCommandNotCompleted,
	4:  ErrClotDetected,
	5:  ErrBarcodeUnreadable,
	6:  ErrTooLittleLiquid,
	7:  ErrTipAlreadyFitted,
	8:  ErrNoTip,
	9:  ErrNoCarrier,
	10: ErrNotCompleted,
	11: ErrDispenseWithPressureLLD,
	12: ErrNoTeachInSignal,
	13: ErrLoadingTray,
	14: ErrSequencedAspirationWithPressureLLD,
	15: ErrNotAllowedParameterCombination,
	16: ErrCoverClose,
	17: ErrAspiration,
	18: ErrWashFluidOrWaste,
	19: ErrIncubation,
	20: ErrTADMMeasurement,
	21: ErrNoElement,
	22: ErrElementStillHolding,
	23: ErrElementLost,
	24: ErrIllegalTargetPlatePosition,
	25: ErrIllegalUserAccess,
	26: ErrTADMMeasurement,
	27: ErrPositionNotReachable,
	28: ErrUnexpectedLLD,
	29: ErrAreaAlreadyOccupied,
	30: ErrImpossibleToOccupyArea,
	31: ErrAntiDropControl,
	32: ErrDecapper,
	33: ErrDecapperHandling,
	99: ErrSlave,
	100: ErrWrongCarrier,
	101: ErrNoCarrierBarcode,
	102: ErrLiquidLevel,
	103: ErrNotDetected,
	104: ErrNotAspirated,
	105: ErrImproperDispensation,
	106: ErrNoLabware,
	107: ErrUnexpectedLabware,
	108: ErrWrongLabware,
	109: ErrBarcodeMask,
	110: ErrBarcodeNotUnique,
	111: ErrBarcodeAlreadyUsed,
	112: ErrKitLotExpired,
	113: ErrDelimiter,
}

// ErrorCodeToKind converts a main-error code to its ErrorKind, ErrUnknown
// if the code is not recognized.
func ErrorCodeToKind(code int) ErrorKind {
	if k, ok := errorCodeToKind[code]; ok {
		return k
	}
	return ErrUnknown
}

// traceTableC0 is the master-module trace-information table.
var traceTableC0 = map[int]string{
	10: "CAN error",
	11: "Slave command time out",
	20: "E2PROM error",
	30: "Unknown command",
	31: "Unknown parameter",
	32: "Parameter out of range",
	33: "Parameter does not belong to command, or not all parameters were sent",
	34: "Node name unknown",
	35: "id parameter error",
	37: "node name defined twice",
	38: "faulty XL channel settings",
	39: "faulty robotic channel settings",
	40: "PIP task busy",
	41: "Auto load task busy",
	42: "Miscellaneous task busy",
	43: "Incubator task busy",
	44: "Washer task busy",
	45: "iSWAP task busy",
	46: "CoRe 96 head task busy",
	47: "Carrier sensor doesn't work properly",
	48: "CoRe 384 head task busy",
	49: "Nano pipettor task busy",
	50: "XL channel task busy",
	51: "Tube gripper task busy",
	52: "Imaging channel task busy",
	53: "Robotic channel task busy",
}

// traceTablePIP is the pipetting-channel (P1..PG) trace table.
var traceTablePIP = map[int]string{
	0:  "No error",
	20: "No communication to EEPROM",
	30: "Unknown command",
	31: "Unknown parameter",
	32: "Parameter out of range",
	35: "Voltages outside permitted range",
	36: "Stop during execution of command",
	37: "Stop during execution of command",
	40: "No parallel processes permitted (two or more commands sent for the same control process)",
	50: "Dispensing drive init. position not found",
	51: "Dispensing drive not initialized",
	52: "Dispensing drive movement error",
	53: "Maximum volume in tip reached",
	54: "Position outside of permitted area",
	55: "Y-drive blocked",
	56: "Y-drive not initialized",
	57: "Y-drive movement error",
	60: "X-drive blocked",
	61: "X-drive not initialized",
	62: "X-drive movement error",
	63: "X-drive limit stop not found",
	70: "No liquid level found (possibly because no liquid was present)",
	71: "Not enough liquid present (immersion depth or surface following position possibly below minimal access range)",
	75: "No tip picked up, possibly because none was present at specified position",
	76: "Tip already picked up",
	77: "Tip not discarded",
	78: "Wrong tip picked up",
	80: "Liquid not correctly aspirated",
	81: "Clot detected",
	82: "TADM measurement out of lower limit curve",
	83: "TADM measurement out of upper limit curve",
	84: "Not enough memory for TADM measurement",
	85: "No communication to digital potentiometer",
	86: "ADC algorithm error",
	87: "2nd phase of liquid not found",
	88: "Not enough liquid present (immersion depth or surface following position possibly below minimal access range)",
	90: "Limit curve not resetable",
	91: "Limit curve not programmable",
	92: "Limit curve not found",
	93: "Limit curve data incorrect",
	94: "Not enough memory for limit curve",
	95: "Invalid limit curve index",
	96: "Limit curve already stored",
}

// traceTableH0 is the CoRe 96 head trace table.
var traceTableH0 = map[int]string{
	20: "No communication to EEPROM",
	30: "Unknown command",
	31: "Unknown parameter",
	32: "Parameter out of range",
	35: "Voltage outside permitted range",
	36: "Stop during execution of command",
	37: "The adjustment sensor did not switch",
	40: "No parallel processes permitted",
	50: "Dispensing drive initialization failed",
	51: "Dispensing drive not initialized",
	52: "Dispensing drive movement error",
	53: "Maximum volume in tip reached",
	54: "Position out of permitted area",
	55: "Y drive initialization failed",
	56: "Y drive not initialized",
	57: "Y drive movement error",
	58: "Y drive position outside of permitted area",
	60: "Z drive initialization failed",
	61: "Z drive not initialized",
	62: "Z drive movement error",
	63: "Z drive position outside of permitted area",
	65: "Squeezer drive initialization failed",
	66: "Squeezer drive not initialized",
	67: "Squeezer drive movement error: drive blocked or incremental sensor fault",
	68: "Squeezer drive position outside of permitted area",
	70: "No liquid level found",
	71: "Not enough liquid present",
	75: "No tip picked up",
	76: "Tip already picked up",
	81: "Clot detected",
}

// traceTableR0 is the iSWAP trace table.
var traceTableR0 = map[int]string{
	20: "No communication to EEPROM",
	30: "Unknown command",
	31: "Unknown parameter",
	32: "Parameter out of range",
	33: "FW doesn't match to HW",
	36: "Stop during execution of command",
	37: "The adjustment sensor did not switch",
	38: "The adjustment sensor cannot be searched",
	40: "No parallel processes permitted",
	41: "No parallel processes permitted",
	42: "No parallel processes permitted",
	50: "Y-drive initialization failed",
	51: "Y-drive not initialized",
	52: "Y-drive movement error: drive locked or incremental sensor fault",
	53: "Y-drive movement error: position counter over/underflow",
	60: "Z-drive initialization failed",
	61: "Z-drive not initialized",
	62: "Z-drive movement error: drive locked or incremental sensor fault",
	63: "Z-drive movement error: position counter over/underflow",
	70: "Rotation-drive initialization failed",
	71: "Rotation-drive not initialized",
	72: "Rotation-drive movement error: drive locked or incremental sensor fault",
	73: "Rotation-drive movement error: position counter over/underflow",
	80: "Wrist twist drive initialization failed",
	81: "Wrist twist drive not initialized",
	82: "Wrist twist drive movement error: drive locked or incremental sensor fault",
	83: "Wrist twist drive movement error: position counter over/underflow",
	85: "Gripper drive: communication error to gripper DMS digital potentiometer",
	86: "Gripper drive: auto adjustment of DMS digital potentiometer not possible",
	89: "Gripper drive movement error: drive locked or incremental sensor fault during gripping",
	90: "Gripper drive initialization failed",
	91: "iSWAP not initialized",
	92: "Gripper drive movement error: drive locked or incremental sensor fault during release",
	93: "Gripper drive movement error: position counter over/underflow",
	94: "Plate not found",
	96: "Plate not available",
	97: "Unexpected object found",
}

// TraceToString converts a module's trace-information code to its
// human-readable description, falling back to a generic "unknown trace
// information" message.
func TraceToString(module Module, trace int) string {
	var table map[int]string
	switch {
	case module == ModuleMaster:
		table = traceTableC0
	case IsPipettingChannel(module):
		table = traceTablePIP
	case module == ModuleCoRe96:
		table = traceTableH0
	case module == ModuleISWAP:
		table = traceTableR0
	}
	if table != nil {
		if s, ok := table[trace]; ok {
			return s
		}
	}
	return fmt.Sprintf("unknown trace information code %02d", trace)
}

// ModuleError is a single module's decoded firmware error.
type ModuleError struct {
	Module      Module
	Kind        ErrorKind
	Trace       int
	Description string
	RawResponse string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Module.Name(), e.Kind, e.Description)
}

// errPairPattern matches an "er<code>/<trace>" pair together with the
// two characters preceding it, which are a module id for slave entries
// inside a master response and arbitrary parameter text otherwise.
var errPairPattern = regexp.MustCompile(`(..)?er(\d{2})(?:/(\d{2,3}))?`)

// ExtractRawModuleErrors scans a raw STAR response for module errors.
// A master (C0) response carries its own "er<code>/<trace>" pair plus
// optional "<module>er<code>/<trace>" entries per slave; any other
// response carries a bare "er<trace>" attributed to the responding
// module itself. Clean entries ("00", "00/00") are discarded here so
// a response that explicitly reports no error maps to an empty set.
func ExtractRawModuleErrors(resp string) map[Module]string {
	out := map[Module]string{}
	if len(resp) < 2 {
		return out
	}
	self := Module(resp[:2])

	for _, m := range errPairPattern.FindAllStringSubmatch(resp, -1) {
		code, trace := m[2], m[3]
		var val string
		if trace != "" {
			val = code + "/" + trace
		} else {
			val = code
		}
		if code == "00" && (trace == "" || trace == "00") {
			continue
		}
		if mod := Module(m[1]); isKnownModule(mod) {
			out[mod] = val
		} else {
			out[self] = val
		}
	}
	return out
}

func isKnownModule(m Module) bool {
	_, ok := moduleNames[m]
	return ok
}

// FirmwareError aggregates one or more ModuleErrors from a single
// response: a "code/trace" entry (the master's own, or a slave's inside
// a master response) is decoded as error_code/trace, a bare entry as a
// trace code alone, and a SlaveError on the master is dropped once any
// slave detail is present.
type FirmwareError struct {
	RawResponse string
	ByModule    map[Module]*ModuleError
}

func (e *FirmwareError) Error() string {
	parts := make([]string, 0, len(e.ByModule))
	for m, me := range e.ByModule {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Name(), me.Error()))
	}
	return strings.Join(parts, "; ")
}

// NewFirmwareError builds a FirmwareError from a per-module raw-error map
// (module id -> "code/trace", or a bare "trace").
func NewFirmwareError(raw map[Module]string, rawResponse string) *FirmwareError {
	fe := &FirmwareError{RawResponse: rawResponse, ByModule: map[Module]*ModuleError{}}
	for mod, errStr := range raw {
		var kind ErrorKind
		var trace int
		if strings.Contains(errStr, "/") {
			pieces := strings.SplitN(errStr, "/", 2)
			code, err1 := strconv.Atoi(pieces[0])
			tr, err2 := strconv.Atoi(pieces[1])
			if err1 != nil || err2 != nil {
				continue
			}
			if code == 0 {
				continue
			}
			kind = ErrorCodeToKind(code)
			trace = tr
		} else {
			tr, err := strconv.Atoi(errStr)
			if err != nil {
				continue
			}
			kind = ErrUnknown
			trace = tr
		}
		fe.ByModule[mod] = &ModuleError{
			Module:      mod,
			Kind:        kind,
			Trace:       trace,
			Description: TraceToString(mod, trace),
			RawResponse: errStr,
		}
	}
	if me, ok := fe.ByModule[ModuleMaster]; ok && me.Kind == ErrSlave {
		delete(fe.ByModule, ModuleMaster)
	}
	return fe
}

// CheckError extracts and decodes any module errors present in resp,
// returning nil if none are found.
func CheckError(resp string) *FirmwareError {
	raw := ExtractRawModuleErrors(resp)
	if len(raw) == 0 {
		return nil
	}
	fe := NewFirmwareError(raw, resp)
	if len(fe.ByModule) == 0 {
		return nil
	}
	return fe
}

// ToTaxonomy demultiplexes a FirmwareError into the unified errs taxonomy:
// a single pipetting-channel TipAlreadyFitted/NoTip becomes HasTip/NoTip,
// traces 70/71/88 become TooLittleLiquid, trace 54 becomes
// TooLittleVolume, a PositionNotReachable code stays PositionNotReachable,
// and anything else is carried through as a channelized FirmwareError.
func (e *FirmwareError) ToTaxonomy() *errs.Error {
	channels := map[int]*errs.Error{}
	var nonChannel []*ModuleError
	for mod, me := range e.ByModule {
		if !IsPipettingChannel(mod) {
			nonChannel = append(nonChannel, me)
			continue
		}
		idx := ChannelIndex(mod)
		channels[idx] = classifyModuleError(me)
	}

	if len(nonChannel) == 0 && len(channels) > 0 {
		return errs.Channelized(channels)
	}

	if len(channels) == 0 && len(nonChannel) == 1 {
		return classifyModuleError(nonChannel[0])
	}

	// Mixed or multi-module: surface as a raw firmware/protocol error.
	return &errs.Error{
		Kind:        errs.KindFirmwareError,
		Message:     e.Error(),
		RawResponse: e.RawResponse,
	}
}

func classifyModuleError(me *ModuleError) *errs.Error {
	switch {
	case me.Kind == ErrTipAlreadyFitted || me.Trace == 76 || me.Trace == 78:
		return errs.New(errs.KindHasTip, me.Description, me)
	case me.Kind == ErrNoTip || me.Trace == 75:
		return errs.New(errs.KindNoTip, me.Description, me)
	case me.Trace == 70 || me.Trace == 71 || me.Trace == 88:
		return errs.New(errs.KindTooLittleLiquid, me.Description, me)
	case me.Trace == 54:
		return errs.New(errs.KindTooLittleVolume, me.Description, me)
	case me.Kind == ErrPositionNotReachable:
		return errs.New(errs.KindPositionNotReachable, me.Description, me)
	case me.Kind == ErrCommandNotCompleted:
		return errs.New(errs.KindDeviceConnectionFailed, me.Description, me)
	default:
		return &errs.Error{
			Kind:        errs.KindFirmwareError,
			Message:     me.Description,
			RawModule:   string(me.Module),
			Trace:       me.Trace,
			RawResponse: me.RawResponse,
		}
	}
}
