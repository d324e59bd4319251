package trace

import (
	"bufio"
	"io"
	"os"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/session"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	opts := cbor.CoreDetEncOptions()
	opts.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = opts.EncMode()
	if err != nil {
		panic("trace: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("trace: CBOR decoder initialization failed: " + err.Error())
	}
}

// Namer resolves a command id to a name for the revision it ran at.
type Namer func(cmd uint32, rev revision.Revision) string

// Recorder writes every traced call to w as a CBOR sequence.
type Recorder struct {
	enc    *cbor.Encoder
	buf    *bufio.Writer
	closer io.Closer
	namer  Namer
	err    error
	seq    uint64
	mu     sync.Mutex
}

// NewRecorder creates a recorder writing to w. namer may be nil.
func NewRecorder(w io.Writer, namer Namer) *Recorder {
	buf := bufio.NewWriter(w)
	r := &Recorder{
		enc:   encMode.NewEncoder(buf),
		buf:   buf,
		namer: namer,
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Create opens path for writing, truncating it, and records into it.
func Create(path string, namer Namer) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTrace, errors.KindIO, err, "create trace file")
	}
	return NewRecorder(f, namer), nil
}

// TraceCall encodes c. The first write error is kept and later calls are
// dropped; see Err.
func (r *Recorder) TraceCall(c session.Call) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}

	var name string
	if r.namer != nil {
		name = r.namer(c.Request.Command, c.Revision)
	}
	r.seq++
	if err := r.enc.Encode(recordFromCall(r.seq, c, name)); err != nil {
		r.err = errors.Wrap(errors.PhaseTrace, errors.KindIO, err, "encode record")
	}
}

// Count returns how many calls were recorded.
func (r *Recorder) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Flush writes buffered records.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if r.err != nil {
		return r.err
	}
	if err := r.buf.Flush(); err != nil {
		r.err = errors.Wrap(errors.PhaseTrace, errors.KindIO, err, "flush")
	}
	return r.err
}

// Close flushes and closes the underlying writer if it is an io.Closer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.flushLocked()
	if r.closer != nil {
		if cerr := r.closer.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.PhaseTrace, errors.KindIO, cerr, "close")
		}
		r.closer = nil
	}
	return err
}
