package ipc

// HandleMode tells the guest how a returned handle was transferred.
type HandleMode uint32

const (
	HandleCopy HandleMode = iota
	HandleMove
)

func (m HandleMode) String() string {
	if m == HandleMove {
		return "move"
	}
	return "copy"
}

// HandleDesc is one handle carried in a response.
type HandleDesc struct {
	Handle uint32
	Mode   HandleMode
}

// Copy is a copy descriptor for h.
func Copy(h uint32) HandleDesc { return HandleDesc{Handle: h, Mode: HandleCopy} }

// Move is a move descriptor for h.
func Move(h uint32) HandleDesc { return HandleDesc{Handle: h, Mode: HandleMove} }

// Request is a guest command invocation.
type Request struct {
	Data    []byte
	Handles []uint32
	Command uint32
}

// Response answers a Request.
type Response struct {
	Data    []byte
	Handles []HandleDesc
	Result  ResultCode
}

// Failed builds a response carrying only a result.
func Failed(rc ResultCode) Response {
	return Response{Result: rc}
}
