// Package fw implements the Hamilton STAR ASCII firmware protocol: the
// format-string encoder/parser, the module/error taxonomy, and
// per-channel error demultiplexing.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package fw

// Module is a two-character firmware subsystem identifier.
type Module string

const (
	ModuleMaster   Module = "C0"
	ModuleXAxis    Module = "X0"
	ModuleAutoload Module = "I0"
	ModuleWash1    Module = "W1"
	ModuleWash2    Module = "W2"
	ModuleTemp1    Module = "T1"
	ModuleTemp2    Module = "T2"
	ModuleISWAP    Module = "R0"
	ModuleCoRe96   Module = "H0"
	ModulePumpHW   Module = "HW"
	ModulePumpHU   Module = "HU"
	ModulePumpHV   Module = "HV"
	ModuleNano     Module = "N0"
	Module384Disp  Module = "D0"
	ModuleNanoPres Module = "NP"
	ModuleReserved Module = "M1"
)

// pipChannelModules lists the 16 pipetting-channel module ids, P1..PG,
// in firmware order.
var pipChannelModules = []Module{"P1", "P2", "P3", "P4", "P5", "P6", "P7", "P8",
	"P9", "PA", "PB", "PC", "PD", "PE", "PF", "PG"}

// ChannelModule returns the module id for a 1-indexed pipetting channel.
func ChannelModule(channel1Indexed int) Module {
	if channel1Indexed < 1 || channel1Indexed > len(pipChannelModules) {
		return ""
	}
	return pipChannelModules[channel1Indexed-1]
}

// IsPipettingChannel reports whether m is one of the 16 pipetting-channel
// modules (P1..PG).
func IsPipettingChannel(m Module) bool {
	for _, pm := range pipChannelModules {
		if pm == m {
			return true
		}
	}
	return false
}

// ChannelIndex returns the 0-indexed channel number for a pipetting-channel
// module, or -1 if m is not a pipetting channel.
func ChannelIndex(m Module) int {
	for i, pm := range pipChannelModules {
		if pm == m {
			return i
		}
	}
	return -1
}

var moduleNames = map[Module]string{
	ModuleMaster:   "Master",
	ModuleXAxis:    "X-drives",
	ModuleAutoload: "Auto load",
	ModuleWash1:    "Wash station 1",
	ModuleWash2:    "Wash station 2",
	ModuleTemp1:    "Temperature controller 1",
	ModuleTemp2:    "Temperature controller 2",
	ModuleISWAP:    "iSWAP",
	ModuleCoRe96:   "CoRe 96 Head",
	ModulePumpHW:   "Pump station 1 station",
	ModulePumpHU:   "Pump station 2 station",
	ModulePumpHV:   "Pump station 3 station",
	ModuleNano:     "Nano dispenser",
	Module384Disp:  "384 dispensing head",
	ModuleNanoPres: "Nano disp. pressure controller",
	ModuleReserved: "Reserved for module 1",
}

func init() {
	for i, m := range pipChannelModules {
		moduleNames[m] = channelName(i + 1)
	}
}

func channelName(n int) string {
	return "Pipetting channel " + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Name returns the human-readable module name, e.g. "Pipetting channel 1".
func (m Module) Name() string {
	if n, ok := moduleNames[m]; ok {
		return n
	}
	return string(m)
}
