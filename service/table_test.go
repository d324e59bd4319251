package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	hlerrors "github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
)

type counter struct {
	calls map[string]int
}

func newCounter() *counter {
	return &counter{calls: make(map[string]int)}
}

func (s *counter) v1(c *Context) ipc.ResultCode {
	s.calls["v1"]++
	c.Out.U32(1)
	return ipc.Success
}

func (s *counter) v6(c *Context) ipc.ResultCode {
	s.calls["v6"]++
	c.Out.U32(6)
	return ipc.Success
}

func (s *counter) echo(c *Context) ipc.ResultCode {
	v, err := c.In.U32()
	if err != nil {
		return ipc.InvalidParameters
	}
	c.Out.U32(v)
	for _, h := range c.InHandles {
		c.CopyHandle(h)
	}
	return ipc.Success
}

func (s *counter) fail(c *Context) ipc.ResultCode {
	c.Out.U32(0xdead)
	c.MoveHandle(1)
	return ipc.NoMessagesPending
}

func testTable(t *testing.T) *Table[*counter] {
	t.Helper()
	tbl, err := NewTable("test",
		Descriptor[*counter]{ID: 10, MinRevision: revision.V6_0_0, Name: "V6", Handler: (*counter).v6},
		Descriptor[*counter]{ID: 10, MinRevision: revision.V1_0_0, Name: "V1", Handler: (*counter).v1},
		Descriptor[*counter]{ID: 20, MinRevision: revision.V3_0_0, Name: "Echo", Handler: (*counter).echo},
		Descriptor[*counter]{ID: 30, MinRevision: revision.V1_0_0, Name: "Fail", Handler: (*counter).fail},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestTable_Resolve(t *testing.T) {
	tbl := testTable(t)

	tests := []struct {
		id   uint32
		rev  revision.Revision
		want string
	}{
		{10, revision.V1_0_0, "V1"},
		{10, revision.New(5, 1, 0), "V1"},
		{10, revision.V6_0_0, "V6"},
		{10, revision.New(12, 0, 0), "V6"},
		{20, revision.V3_0_0, "Echo"},
		{20, revision.New(2, 3, 0), ""},
		{99, revision.V7_0_0, ""},
	}
	for _, tt := range tests {
		d, ok := tbl.Resolve(tt.id, tt.rev)
		if tt.want == "" {
			if ok {
				t.Errorf("Resolve(%d, %s) = %s, want none", tt.id, tt.rev, d.Name)
			}
			continue
		}
		if !ok || d.Name != tt.want {
			t.Errorf("Resolve(%d, %s) = %q, %v; want %q", tt.id, tt.rev, d.Name, ok, tt.want)
		}
		if tbl.CommandName(tt.id, tt.rev) != tt.want {
			t.Errorf("CommandName(%d, %s) mismatch", tt.id, tt.rev)
		}
	}
}

func TestTable_EveryDescriptorResolvesAtItsRevision(t *testing.T) {
	tbl := testTable(t)
	for _, d := range tbl.Commands() {
		got, ok := tbl.Resolve(d.ID, d.MinRevision)
		if !ok || got.Name != d.Name {
			t.Errorf("Resolve(%d, %s) = %q, want %q", d.ID, d.MinRevision, got.Name, d.Name)
		}
		if d.MinRevision > 0 {
			if below, ok := tbl.Resolve(d.ID, d.MinRevision-1); ok && below.Name == d.Name {
				t.Errorf("%s resolved below its minimum revision", d.Name)
			}
		}
	}
}

func TestTable_Dispatch(t *testing.T) {
	tbl := testTable(t)
	svc := newCounter()
	ctx := context.Background()

	resp := tbl.Dispatch(ctx, svc, revision.V7_0_0, ipc.Request{Command: 10})
	if resp.Result != ipc.Success || !bytes.Equal(resp.Data, []byte{6, 0, 0, 0}) {
		t.Fatalf("Dispatch(10@7.0.0) = %+v", resp)
	}
	resp = tbl.Dispatch(ctx, svc, revision.V1_0_0, ipc.Request{Command: 10})
	if !bytes.Equal(resp.Data, []byte{1, 0, 0, 0}) {
		t.Fatalf("Dispatch(10@1.0.0) = %+v", resp)
	}
	if svc.calls["v1"] != 1 || svc.calls["v6"] != 1 {
		t.Fatalf("calls = %v", svc.calls)
	}

	resp = tbl.Dispatch(ctx, svc, revision.V1_0_0, ipc.Request{Command: 20})
	if resp.Result != ipc.NotImplemented || resp.Data != nil {
		t.Fatalf("Dispatch(20@1.0.0) = %+v, want NotImplemented", resp)
	}
}

func TestTable_DispatchPayloadAndHandles(t *testing.T) {
	tbl := testTable(t)

	req := ipc.Request{Command: 20, Data: []byte{0x2a, 0, 0, 0}, Handles: []uint32{5}}
	resp := tbl.Dispatch(context.Background(), newCounter(), revision.V3_0_0, req)
	if resp.Result != ipc.Success {
		t.Fatalf("Result = %s", resp.Result)
	}
	if !bytes.Equal(resp.Data, req.Data) {
		t.Fatalf("Data = %v", resp.Data)
	}
	if len(resp.Handles) != 1 || resp.Handles[0] != ipc.Copy(5) {
		t.Fatalf("Handles = %+v", resp.Handles)
	}

	short := tbl.Dispatch(context.Background(), newCounter(), revision.V3_0_0, ipc.Request{Command: 20})
	if short.Result != ipc.InvalidParameters {
		t.Fatalf("short input: %s", short.Result)
	}
}

func TestTable_FailureDropsOutput(t *testing.T) {
	tbl := testTable(t)
	resp := tbl.Dispatch(context.Background(), newCounter(), revision.V1_0_0, ipc.Request{Command: 30})
	if resp.Result != ipc.NoMessagesPending {
		t.Fatalf("Result = %s", resp.Result)
	}
	if resp.Data != nil || resp.Handles != nil {
		t.Fatalf("failed response carries output: %+v", resp)
	}
}

func TestNewTable_Duplicate(t *testing.T) {
	h := (*counter).v1
	_, err := NewTable("dup",
		Descriptor[*counter]{ID: 1, MinRevision: revision.V3_0_0, Name: "A", Handler: h},
		Descriptor[*counter]{ID: 1, MinRevision: revision.V3_0_0, Name: "B", Handler: h},
	)
	if !errors.Is(err, &hlerrors.Error{Phase: hlerrors.PhaseRegister, Kind: hlerrors.KindDuplicate}) {
		t.Fatalf("NewTable: got %v, want duplicate registration error", err)
	}

	_, err = NewTable("nil", Descriptor[*counter]{ID: 1, Name: "A"})
	if !hlerrors.IsKind(err, hlerrors.KindInvalidInput) {
		t.Fatalf("NewTable(nil handler): got %v", err)
	}
}

func TestMustTable_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustTable should panic on duplicates")
		}
	}()
	h := (*counter).v1
	MustTable("dup",
		Descriptor[*counter]{ID: 1, Name: "A", Handler: h},
		Descriptor[*counter]{ID: 1, Name: "B", Handler: h},
	)
}

func TestBind(t *testing.T) {
	svc := newCounter()
	s := Bind(testTable(t), svc)
	resp := s.Dispatch(context.Background(), revision.V1_0_0, ipc.Request{Command: 10})
	if resp.Result != ipc.Success || svc.calls["v1"] != 1 {
		t.Fatalf("bound dispatch = %+v, calls %v", resp, svc.calls)
	}
}

func TestCommandsOrdered(t *testing.T) {
	cmds := testTable(t).Commands()
	if len(cmds) != 4 {
		t.Fatalf("len = %d", len(cmds))
	}
	if cmds[0].Name != "V1" || cmds[1].Name != "V6" || cmds[2].ID != 20 || cmds[3].ID != 30 {
		t.Fatalf("order = %v %v %v %v", cmds[0].Name, cmds[1].Name, cmds[2].Name, cmds[3].Name)
	}
}
