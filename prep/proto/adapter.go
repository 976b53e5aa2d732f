// Package proto implements the Tecan-Cavro "Prep" binary protocol.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package proto

import "github.com/benchctl/labcore/errs"

// ToTaxonomy translates an HcResult into the unified error taxonomy.
// Returns nil for HcSuccess.
func (r HcResult) ToTaxonomy() *errs.Error {
	switch {
	case r.OK():
		return nil
	case r == HcGenericTimeOut || r == HcComLinkTimeout || r == HcGenericCoordinatedCommandTimeout:
		return errs.Timeout("prep: %s", r.String())
	case r == HcGenericNotSupported || r == HcGenericNotImplemented:
		return errs.Unsupported("prep: %s", r.String())
	case r == HcGenericInvalidParameter || r == HcGenericInvalidData || r == HcGenericNullParameter:
		return errs.InvalidArgument("prep: %s", r.String())
	case r == HcGenericBusy || r == HcComLinkNotConnected || r == HcComLinkTcpConnectionFailed || r == HcNetworkNoDestination || r == HcNetworkUndefinedProtocol:
		return errs.New(errs.KindDeviceConnectionFailed, r.String(), nil)
	case r == HcGenericNotReady || r == HcNetworkBusy:
		return errs.New(errs.KindNotReady, r.String(), nil)
	default:
		return &errs.Error{Kind: errs.KindProtocolError, Message: r.String()}
	}
}
