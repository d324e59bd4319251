// Package service resolves guest command identifiers to handlers.
//
// A Table is built once, in ordinary code, from a list of Descriptors. Each
// descriptor binds a command id and the minimum firmware revision it needs to a
// handler. Handlers are method expressions on the service type, so the same
// table serves every session:
//
//	var commands = service.MustTable("am:ICommonStateGetter",
//	    service.Descriptor[*Getter]{ID: 0, MinRevision: revision.V1_0_0, Name: "GetEventHandle", Handler: (*Getter).GetEventHandle},
//	    service.Descriptor[*Getter]{ID: 50, MinRevision: revision.V3_0_0, Name: "IsVrModeEnabled", Handler: (*Getter).IsVrModeEnabled},
//	)
//
//	resp := commands.Dispatch(ctx, getter, rev, req)
//
// # Revision gating
//
// Several descriptors may share an id. Resolve picks the one with the greatest
// MinRevision not above the caller's revision; when none qualifies the command
// answers ipc.NotImplemented. Two descriptors with the same id and MinRevision
// are rejected by NewTable.
//
// # Results
//
// Handlers return an ipc.ResultCode. Output written by a failing handler is
// dropped; only the result reaches the guest.
package service
