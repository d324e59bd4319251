package ipc

import (
	"fmt"

	"github.com/wippyai/hle/errors"
)

// ResultCode is a packed guest result: module in the low 9 bits, description above.
type ResultCode uint32

const moduleBits = 9

// Modules that own result descriptions.
const (
	ModuleKernel uint32 = 1
	ModuleSF     uint32 = 10
	ModuleAM     uint32 = 128
)

// MakeResult packs a module and description.
func MakeResult(module, description uint32) ResultCode {
	return ResultCode(description<<moduleBits | module&(1<<moduleBits-1))
}

const (
	Success              ResultCode = 0
	NoMessagesPending    ResultCode = 3<<moduleBits | ResultCode(ModuleAM)
	InvalidParameters    ResultCode = 506<<moduleBits | ResultCode(ModuleAM)
	NotImplemented       ResultCode = 221<<moduleBits | ResultCode(ModuleSF)
	HandleTableExhausted ResultCode = 105<<moduleBits | ResultCode(ModuleKernel)
	InvalidHandle        ResultCode = 114<<moduleBits | ResultCode(ModuleKernel)
)

func (r ResultCode) Module() uint32      { return uint32(r) & (1<<moduleBits - 1) }
func (r ResultCode) Description() uint32 { return uint32(r) >> moduleBits }
func (r ResultCode) IsSuccess() bool     { return r == Success }

func (r ResultCode) String() string {
	switch r {
	case Success:
		return "Success"
	case NoMessagesPending:
		return "NoMessagesPending"
	case InvalidParameters:
		return "InvalidParameters"
	case NotImplemented:
		return "NotImplemented"
	case HandleTableExhausted:
		return "HandleTableExhausted"
	case InvalidHandle:
		return "InvalidHandle"
	default:
		return fmt.Sprintf("%04d-%04d", 2000+r.Module(), r.Description())
	}
}

// ResultFromError maps a host-side error to the result a guest sees.
func ResultFromError(err error) ResultCode {
	switch {
	case err == nil:
		return Success
	case errors.IsKind(err, errors.KindExhausted):
		return HandleTableExhausted
	case errors.IsKind(err, errors.KindInvalidHandle):
		return InvalidHandle
	default:
		return InvalidParameters
	}
}
