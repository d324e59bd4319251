package am

import (
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/service"
)

// ServiceName is the name the command table is registered under.
const ServiceName = "am:ICommonStateGetter"

// Command ids.
const (
	CmdGetEventHandle                         uint32 = 0
	CmdReceiveMessage                         uint32 = 1
	CmdGetOperationMode                       uint32 = 5
	CmdGetPerformanceMode                     uint32 = 6
	CmdGetBootMode                            uint32 = 8
	CmdGetCurrentFocusState                   uint32 = 9
	CmdIsVrModeEnabled                        uint32 = 50
	CmdGetDefaultDisplayResolution            uint32 = 60
	CmdGetDefaultDisplayResolutionChangeEvent uint32 = 61
	CmdSetCpuBoostMode                        uint32 = 66
	CmdGetCurrentPerformanceConfiguration     uint32 = 91
)

type descriptor = service.Descriptor[*CommonStateGetter]

var commandTable = service.MustTable(ServiceName,
	descriptor{ID: CmdGetEventHandle, MinRevision: revision.V1_0_0, Name: "GetEventHandle", Handler: (*CommonStateGetter).getEventHandle},
	descriptor{ID: CmdReceiveMessage, MinRevision: revision.V1_0_0, Name: "ReceiveMessage", Handler: (*CommonStateGetter).receiveMessage},
	descriptor{ID: CmdGetOperationMode, MinRevision: revision.V1_0_0, Name: "GetOperationMode", Handler: (*CommonStateGetter).getOperationMode},
	descriptor{ID: CmdGetPerformanceMode, MinRevision: revision.V1_0_0, Name: "GetPerformanceMode", Handler: (*CommonStateGetter).getPerformanceMode},
	descriptor{ID: CmdGetBootMode, MinRevision: revision.V1_0_0, Name: "GetBootMode", Handler: (*CommonStateGetter).getBootMode},
	descriptor{ID: CmdGetCurrentFocusState, MinRevision: revision.V1_0_0, Name: "GetCurrentFocusState", Handler: (*CommonStateGetter).getCurrentFocusState},
	descriptor{ID: CmdIsVrModeEnabled, MinRevision: revision.V3_0_0, Name: "IsVrModeEnabled", Handler: (*CommonStateGetter).isVrModeEnabled},
	descriptor{ID: CmdGetDefaultDisplayResolution, MinRevision: revision.V3_0_0, Name: "GetDefaultDisplayResolution", Handler: (*CommonStateGetter).getDefaultDisplayResolution},
	descriptor{ID: CmdGetDefaultDisplayResolutionChangeEvent, MinRevision: revision.V3_0_0, Name: "GetDefaultDisplayResolutionChangeEvent", Handler: (*CommonStateGetter).getDefaultDisplayResolutionChangeEvent},
	descriptor{ID: CmdSetCpuBoostMode, MinRevision: revision.V6_0_0, Name: "SetCpuBoostMode", Handler: (*CommonStateGetter).setCpuBoostMode},
	descriptor{ID: CmdGetCurrentPerformanceConfiguration, MinRevision: revision.V7_0_0, Name: "GetCurrentPerformanceConfiguration", Handler: (*CommonStateGetter).getCurrentPerformanceConfiguration},
)

// Commands lists the registered commands ordered by id.
func Commands() []service.Descriptor[*CommonStateGetter] {
	return commandTable.Commands()
}

// CommandName returns the command name for id at rev, or "" if id does not
// resolve at that revision.
func CommandName(id uint32, rev revision.Revision) string {
	return commandTable.CommandName(id, rev)
}
