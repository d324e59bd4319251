package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/hle/am"
	"github.com/wippyai/hle/apm"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
)

// commandID resolves a command given by number or by name.
func commandID(s string, rev revision.Revision) (uint32, error) {
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(v), nil
	}
	for _, d := range am.Commands() {
		if strings.EqualFold(d.Name, s) && d.MinRevision <= rev {
			return d.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", s)
}

// describe renders a response payload using the command's output layout.
func describe(cmd uint32, resp ipc.Response) string {
	if resp.Result != ipc.Success {
		return resp.Result.String()
	}

	rd := ipc.NewReader(resp.Data)
	var out string
	switch cmd {
	case am.CmdReceiveMessage:
		v, err := rd.U32()
		out = valueOr(err, func() string { return session.Message(v).String() })
	case am.CmdGetOperationMode:
		v, err := rd.U8()
		out = valueOr(err, func() string { return session.OperationMode(v).String() })
	case am.CmdGetPerformanceMode:
		v, err := rd.S32()
		out = valueOr(err, func() string { return apm.PerformanceMode(v).String() })
	case am.CmdGetBootMode:
		v, err := rd.U8()
		out = valueOr(err, func() string { return strconv.Itoa(int(v)) })
	case am.CmdGetCurrentFocusState:
		v, err := rd.U8()
		out = valueOr(err, func() string { return session.FocusState(v).String() })
	case am.CmdIsVrModeEnabled:
		v, err := rd.Bool()
		out = valueOr(err, func() string { return strconv.FormatBool(v) })
	case am.CmdGetDefaultDisplayResolution:
		w, err := rd.U32()
		h, herr := rd.U32()
		if err == nil {
			err = herr
		}
		out = valueOr(err, func() string { return fmt.Sprintf("%dx%d", w, h) })
	case am.CmdGetCurrentPerformanceConfiguration:
		v, err := rd.U32()
		out = valueOr(err, func() string { return apm.PerformanceConfiguration(v).String() })
	default:
		if len(resp.Data) > 0 {
			out = fmt.Sprintf("% x", resp.Data)
		}
	}

	var parts []string
	parts = append(parts, "Success")
	if out != "" {
		parts = append(parts, out)
	}
	for _, h := range resp.Handles {
		parts = append(parts, fmt.Sprintf("handle 0x%x (%s)", h.Handle, h.Mode))
	}
	return strings.Join(parts, " ")
}

func valueOr(err error, fn func() string) string {
	if err != nil {
		return "malformed payload: " + err.Error()
	}
	return fn()
}
