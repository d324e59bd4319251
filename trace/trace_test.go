package trace

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
)

func sampleCalls() []session.Call {
	id := uuid.New()
	start := time.Unix(1700000000, 42)
	return []session.Call{
		{
			Start:     start,
			Request:   ipc.Request{Command: 0},
			Response:  ipc.Response{Result: ipc.Success, Handles: []ipc.HandleDesc{ipc.Copy(1)}},
			Session:   id,
			ProcessID: 0x51,
			Elapsed:   3 * time.Microsecond,
			Revision:  revision.V7_0_0,
		},
		{
			Start:     start.Add(time.Millisecond),
			Request:   ipc.Request{Command: 66, Data: []byte{2, 0, 0, 0}},
			Response:  ipc.Failed(ipc.InvalidParameters),
			Session:   id,
			ProcessID: 0x51,
			Revision:  revision.V7_0_0,
		},
	}
}

func namer(cmd uint32, _ revision.Revision) string {
	if cmd == 0 {
		return "GetEventHandle"
	}
	return ""
}

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf, namer)
	calls := sampleCalls()
	for _, c := range calls {
		rec.TraceCall(c)
	}
	if err := rec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.Count() != 2 {
		t.Fatalf("Count = %d", rec.Count())
	}

	got, err := NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(calls) {
		t.Fatalf("read %d records, want %d", len(got), len(calls))
	}

	first := got[0]
	if first.Seq != 1 || first.Name != "GetEventHandle" || first.Session != calls[0].Session {
		t.Errorf("first = %+v", first)
	}
	if first.Revision != revision.V7_0_0 || first.ProcessID != 0x51 {
		t.Errorf("revision=%s pid=%d", first.Revision, first.ProcessID)
	}
	if !first.Start().Equal(calls[0].Start) || first.Elapsed != calls[0].Elapsed {
		t.Errorf("timing = %v %v", first.Start(), first.Elapsed)
	}
	resp := first.Response()
	if resp.Result != ipc.Success || len(resp.Handles) != 1 || resp.Handles[0] != ipc.Copy(1) {
		t.Errorf("response = %+v", resp)
	}

	second := got[1]
	if second.Seq != 2 || second.Name != "" || second.Result != ipc.InvalidParameters {
		t.Errorf("second = %+v", second)
	}
	req := second.Request()
	if req.Command != 66 || !bytes.Equal(req.Data, []byte{2, 0, 0, 0}) {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(second.String(), "cmd#66") {
		t.Errorf("String = %q", second.String())
	}
}

func TestRecorder_Deterministic(t *testing.T) {
	encode := func() []byte {
		var buf bytes.Buffer
		rec := NewRecorder(&buf, namer)
		for _, c := range sampleCalls()[:1] {
			c.Session = uuid.Nil
			rec.TraceCall(c)
		}
		if err := rec.Flush(); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	if !bytes.Equal(encode(), encode()) {
		t.Fatal("identical calls produced different bytes")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestRecorder_WriteError(t *testing.T) {
	rec := NewRecorder(failingWriter{}, nil)
	rec.TraceCall(sampleCalls()[0])

	err := rec.Close()
	if !errors.IsKind(err, errors.KindIO) {
		t.Fatalf("Close = %v", err)
	}
	if rec.Err() == nil {
		t.Fatal("Err not retained")
	}
	rec.TraceCall(sampleCalls()[1])
	if rec.Count() != 1 {
		t.Fatalf("recorded after failure: %d", rec.Count())
	}
}

func TestCreateAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.cbor")
	rec, err := Create(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range sampleCalls() {
		rec.TraceCall(c)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records", len(got))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.cbor")); !errors.IsKind(err, errors.KindIO) {
		t.Fatalf("missing file: %v", err)
	}
}

func TestReader_Truncated(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf, nil)
	rec.TraceCall(sampleCalls()[0])
	if err := rec.Flush(); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()[:buf.Len()-2]
	_, err := NewReader(bytes.NewReader(data)).Next()
	if err == nil || err == io.EOF {
		t.Fatalf("truncated record: %v", err)
	}
	if !errors.IsKind(err, errors.KindInvalidData) {
		t.Fatalf("kind: %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	rec := recordFromCall(7, sampleCalls()[0], "GetEventHandle")
	diag, err := Diagnose(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(diag, `"GetEventHandle"`) || !strings.Contains(diag, `"7.0.0"`) {
		t.Fatalf("diag = %s", diag)
	}
}
