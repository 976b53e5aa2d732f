// Package proto implements the Tecan-Cavro "Prep" binary protocol.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package proto

import "fmt"

// HcResult is the Prep firmware's status code, carried as the first
// fragment of a HOI response. The zero value, HcSuccess, means success; every
// other value is a driver- or device-level failure the orchestrator
// translates into the unified taxonomy. Values match the device's own
// HcResult enumeration so raw captures stay comparable.
type HcResult uint32

const (
	HcSuccess HcResult = 0x0000

	HcGenericError                     HcResult = 0x0001
	HcGenericNotReady                  HcResult = 0x0002
	HcGenericNullParameter             HcResult = 0x0003
	HcGenericCalledByInitHandler       HcResult = 0x0004
	HcGenericInvalidData               HcResult = 0x0005
	HcGenericOutOfMemory                HcResult = 0x0006
	HcGenericWriteFault                  HcResult = 0x0007
	HcGenericReadFault                    HcResult = 0x0008
	HcGenericBufferOverflow                 HcResult = 0x0009
	HcGenericNotInitialized                 HcResult = 0x000A
	HcGenericAlreadyInitialized              HcResult = 0x000B
	HcGenericWaitAborted                     HcResult = 0x000C
	HcGenericTimeOut                         HcResult = 0x000D
	HcGenericMissingCallBack                 HcResult = 0x000E
	HcGenericInvalidHandle                   HcResult = 0x000F
	HcGenericNotSupported                    HcResult = 0x0010
	HcGenericInvalidParameter                HcResult = 0x0011
	HcGenericNotImplemented                  HcResult = 0x0012
	HcGenericBadCrc                          HcResult = 0x0013
	HcGenericFlashNotBlank                   HcResult = 0x0014
	HcGenericMultipleErrorsReported           HcResult = 0x0015
	HcGenericCoordinatedCommandTimeout        HcResult = 0x0016
	HcGenericAccessDenied                     HcResult = 0x0017
	HcGenericBusy                             HcResult = 0x0019
	HcGenericMethodObsolete                   HcResult = 0x001A

	HcKernelMutexTimeout     HcResult = 0x0101
	HcKernelSemaphoreTimeout HcResult = 0x0102
	HcKernelEventTimeout     HcResult = 0x0103

	HcNetworkUndefinedProtocol      HcResult = 0x0201
	HcNetworkNoDestination          HcResult = 0x0202
	HcNetworkBusy                   HcResult = 0x0205
	HcNetworkProxySendAttemptFailed HcResult = 0x0210

	HcXPortSlOsPortNotInstalled HcResult = 0x0301

	HcComLinkReferToInnerException HcResult = 0x0400
	HcComLinkNotConnected           HcResult = 0x0401
	HcComLinkTcpConnectionFailed    HcResult = 0x0402
	HcComLinkTimeout                HcResult = 0x0416
	HcComLinkBonaduzError            HcResult = 0x0437
)

var hcResultNames = map[HcResult]string{
	HcSuccess:                          "success",
	HcGenericError:                     "generic error",
	HcGenericNotReady:                  "not ready",
	HcGenericNullParameter:             "null parameter",
	HcGenericCalledByInitHandler:       "called by init handler",
	HcGenericInvalidData:               "invalid data",
	HcGenericOutOfMemory:               "out of memory",
	HcGenericWriteFault:                "write fault",
	HcGenericReadFault:                 "read fault",
	HcGenericBufferOverflow:            "buffer overflow",
	HcGenericNotInitialized:            "not initialized",
	HcGenericAlreadyInitialized:        "already initialized",
	HcGenericWaitAborted:               "wait aborted",
	HcGenericTimeOut:                   "timeout",
	HcGenericMissingCallBack:           "missing callback",
	HcGenericInvalidHandle:             "invalid handle",
	HcGenericNotSupported:              "not supported",
	HcGenericInvalidParameter:          "invalid parameter",
	HcGenericNotImplemented:            "not implemented",
	HcGenericBadCrc:                    "bad crc",
	HcGenericFlashNotBlank:             "flash not blank",
	HcGenericMultipleErrorsReported:    "multiple errors reported",
	HcGenericCoordinatedCommandTimeout: "coordinated command timeout",
	HcGenericAccessDenied:              "access denied",
	HcGenericBusy:                      "device busy",
	HcGenericMethodObsolete:            "method obsolete",
	HcKernelMutexTimeout:               "kernel mutex timeout",
	HcKernelSemaphoreTimeout:           "kernel semaphore timeout",
	HcKernelEventTimeout:               "kernel event timeout",
	HcNetworkUndefinedProtocol:         "network: undefined protocol",
	HcNetworkNoDestination:             "network: no destination",
	HcNetworkBusy:                      "network busy",
	HcNetworkProxySendAttemptFailed:    "network proxy send attempt failed",
	HcXPortSlOsPortNotInstalled:        "xport: sl os port not installed",
	HcComLinkReferToInnerException:     "com link: refer to inner exception",
	HcComLinkNotConnected:              "com link: not connected",
	HcComLinkTcpConnectionFailed:       "com link: tcp connection failed",
	HcComLinkTimeout:                   "com link: timeout",
	HcComLinkBonaduzError:              "com link: bonaduz error",
}

func (r HcResult) String() string {
	if s, ok := hcResultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("HcResult(0x%04x)", uint32(r))
}

// OK reports whether r indicates success.
func (r HcResult) OK() bool { return r == HcSuccess }

// Retryable reports whether r represents a transient condition worth
// retrying, mirroring errs.Retryable for STAR.
func (r HcResult) Retryable() bool {
	switch r {
	case HcGenericBusy, HcGenericNotReady, HcNetworkBusy, HcKernelMutexTimeout, HcKernelSemaphoreTimeout, HcKernelEventTimeout:
		return true
	default:
		return false
	}
}
