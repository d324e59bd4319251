package system

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wippyai/hle/am"
	"github.com/wippyai/hle/apm"
	"github.com/wippyai/hle/config"
	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/handle"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
	"github.com/wippyai/hle/trace"
)

func loadConfig(t *testing.T, body string) *config.Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hle.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	m := config.New(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

type callLog struct {
	mu    sync.Mutex
	calls []session.Call
}

func (l *callLog) TraceCall(c session.Call) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func handleOf(r ipc.Response) handle.Handle {
	return handle.Handle(r.Handles[0].Handle)
}

func call(t *testing.T, s *session.State, cmd uint32, data []byte) ipc.Response {
	t.Helper()
	resp, err := s.Dispatch(context.Background(), ipc.Request{Command: cmd, Data: data})
	if err != nil {
		t.Fatalf("Dispatch(%d): %v", cmd, err)
	}
	return resp
}

func TestConnect(t *testing.T) {
	log := &callLog{}
	sys, err := New(loadConfig(t, "max_sessions: 2\nhandle_table_size: 1\n").Current(), WithTracer(log))
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close()

	a, err := sys.Connect(1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := sys.Connect(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Connect(3); !errors.IsKind(err, errors.KindLimit) {
		t.Fatalf("third Connect: %v", err)
	}

	for _, s := range []*session.State{a, b} {
		if resp := call(t, s, am.CmdGetEventHandle, nil); resp.Result != ipc.Success {
			t.Fatalf("pid %d: %s", s.ProcessID(), resp.Result)
		}
		if resp := call(t, s, am.CmdGetEventHandle, nil); resp.Result != ipc.HandleTableExhausted {
			t.Fatalf("pid %d second handle: %s", s.ProcessID(), resp.Result)
		}
	}

	if len(log.calls) != 4 {
		t.Fatalf("traced %d calls", len(log.calls))
	}
	if log.calls[0].Revision != revision.V7_0_0 {
		t.Fatalf("revision = %s", log.calls[0].Revision)
	}
}

func TestFirmwareGating(t *testing.T) {
	sys, err := New(loadConfig(t, "firmware_revision: \"5.1.0\"\n").Current())
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close()

	s, err := sys.Connect(1)
	if err != nil {
		t.Fatal(err)
	}
	if resp := call(t, s, am.CmdIsVrModeEnabled, nil); resp.Result != ipc.Success {
		t.Fatalf("3.0.0 command: %s", resp.Result)
	}
	if resp := call(t, s, am.CmdSetCpuBoostMode, []byte{1, 0, 0, 0}); resp.Result != ipc.NotImplemented {
		t.Fatalf("6.0.0 command on 5.1.0: %s", resp.Result)
	}
}

func TestSetDocked(t *testing.T) {
	sys, err := New(loadConfig(t, "docked: false\n").Current())
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close()

	s, _ := sys.Connect(1)

	if !sys.SetDocked(true) {
		t.Fatal("SetDocked on a static dock failed")
	}
	if resp := call(t, s, am.CmdGetOperationMode, nil); resp.Data[0] != byte(session.OperationModeDocked) {
		t.Fatalf("mode = %d", resp.Data[0])
	}
	resp := call(t, s, am.CmdGetPerformanceMode, nil)
	if apm.PerformanceMode(binary.LittleEndian.Uint32(resp.Data)) != apm.PerformanceModeBoost {
		t.Fatalf("performance mode = %x", resp.Data)
	}

	for _, want := range []session.Message{session.MessageOperationModeChanged, session.MessagePerformanceModeChanged} {
		resp := call(t, s, am.CmdReceiveMessage, nil)
		if session.Message(binary.LittleEndian.Uint32(resp.Data)) != want {
			t.Fatalf("message = %x, want %s", resp.Data, want)
		}
	}
	if resp := call(t, s, am.CmdReceiveMessage, nil); resp.Result != ipc.NoMessagesPending {
		t.Fatalf("extra message: %+v", resp)
	}

	sys.SetDocked(true)
	if s.Messages().Len() != 0 {
		t.Fatal("unchanged dock state queued messages")
	}
}

func TestFromConfig_Reload(t *testing.T) {
	m := loadConfig(t, "docked: false\nvr_mode: false\n")
	sys, err := FromConfig(m)
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close()

	s, _ := sys.Connect(1)
	if sys.SetDocked(true) {
		t.Fatal("SetDocked should defer to the config source")
	}

	m.SetDocked(true)
	if !sys.Docked() {
		t.Fatal("system did not follow config docked flag")
	}
	if s.OperationMode() != session.OperationModeDocked || s.Messages().Len() != 2 {
		t.Fatalf("mode=%s messages=%d", s.OperationMode(), s.Messages().Len())
	}
}

func TestFromConfig_VRMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hle.yaml")
	if err := os.WriteFile(path, []byte("vr_mode: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := config.New(path)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	sys, err := FromConfig(m)
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close()

	a, _ := sys.Connect(1)
	b, _ := sys.Connect(2)

	m.SetVRMode(true)
	for _, s := range []*session.State{a, b} {
		if resp := call(t, s, am.CmdIsVrModeEnabled, nil); resp.Data[0] != 1 {
			t.Fatalf("pid %d: vr = %x", s.ProcessID(), resp.Data)
		}
	}

	if err := os.WriteFile(path, []byte("vr_mode: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err != nil {
		t.Fatal(err)
	}
	if !a.VRModeEnabled() {
		t.Fatal("reload reverted the VR toggle")
	}

	m.SetVRMode(false)
	if a.VRModeEnabled() || b.VRModeEnabled() {
		t.Fatal("VR toggle off did not reach every session")
	}
}

func TestTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.cbor")
	cfg := loadConfig(t, "trace:\n  path: "+path+"\n").Current()

	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := sys.Connect(7)
	call(t, s, am.CmdGetDefaultDisplayResolution, nil)
	call(t, s, 2, nil)
	if err := sys.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs, err := trace.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("%d records", len(recs))
	}
	if recs[0].Name != "GetDefaultDisplayResolution" || recs[0].ProcessID != 7 {
		t.Fatalf("first = %s", recs[0])
	}
	if recs[1].Result != ipc.NotImplemented || recs[1].Name != "" {
		t.Fatalf("second = %s", recs[1])
	}
}

func TestBoostModeHook(t *testing.T) {
	var got []apm.CpuBoostMode
	sys, err := New(loadConfig(t, "").Current(), WithBoostModeHook(func(m apm.CpuBoostMode) { got = append(got, m) }))
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close()

	s, _ := sys.Connect(1)
	call(t, s, am.CmdSetCpuBoostMode, []byte{1, 0, 0, 0})
	if len(got) != 1 || got[0] != apm.CpuBoostFastLoad {
		t.Fatalf("hook calls = %v", got)
	}
	if sys.Power().CpuBoostMode() != apm.CpuBoostFastLoad {
		t.Fatal("power manager not updated")
	}
}

func TestDisplayEvent(t *testing.T) {
	sys, err := New(loadConfig(t, "").Current())
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close()

	a, _ := sys.Connect(1)
	b, _ := sys.Connect(2)
	ra := call(t, a, am.CmdGetDefaultDisplayResolutionChangeEvent, nil)
	rb := call(t, b, am.CmdGetDefaultDisplayResolutionChangeEvent, nil)

	oa, _ := a.Handles().Resolve(handleOf(ra))
	ob, _ := b.Handles().Resolve(handleOf(rb))
	if oa != ob {
		t.Fatal("sessions see different display events")
	}

	sys.SignalDisplayResolutionChange()
	if !sys.DisplayEvent().Readable().IsSignaled() {
		t.Fatal("display event not signaled")
	}
}
