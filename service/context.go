package service

import (
	"context"

	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
)

// Context is handed to a handler for one command invocation.
type Context struct {
	ctx       context.Context
	In        *ipc.Reader
	Out       *ipc.Writer
	InHandles []uint32
	handles   []ipc.HandleDesc
	Command   uint32
	Revision  revision.Revision
}

// NewContext prepares a handler context for req.
func NewContext(ctx context.Context, rev revision.Revision, req ipc.Request) *Context {
	return &Context{
		ctx:       ctx,
		In:        ipc.NewReader(req.Data),
		Out:       ipc.NewWriter(),
		InHandles: req.Handles,
		Command:   req.Command,
		Revision:  rev,
	}
}

// Context returns the caller's context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// CopyHandle attaches h to the response as a copy.
func (c *Context) CopyHandle(h uint32) {
	c.handles = append(c.handles, ipc.Copy(h))
}

// MoveHandle attaches h to the response as a move.
func (c *Context) MoveHandle(h uint32) {
	c.handles = append(c.handles, ipc.Move(h))
}

// Handles returns the descriptors attached so far.
func (c *Context) Handles() []ipc.HandleDesc {
	return c.handles
}

// Response assembles the reply for rc.
func (c *Context) Response(rc ipc.ResultCode) ipc.Response {
	if rc != ipc.Success {
		return ipc.Failed(rc)
	}
	resp := ipc.Response{Result: ipc.Success, Handles: c.handles}
	if c.Out.Len() > 0 {
		resp.Data = append([]byte(nil), c.Out.Bytes()...)
	}
	return resp
}
