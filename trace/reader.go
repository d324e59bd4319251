package trace

import (
	stderrors "errors"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/hle/errors"
)

// Reader decodes records written by a Recorder.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next decodes the next record. It returns io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if stderrors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, errors.Wrap(errors.PhaseTrace, errors.KindInvalidData, err, "decode record")
	}
	return rec, nil
}

// ReadAll decodes every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// ReadFile decodes every record in the file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTrace, errors.KindIO, err, "open trace file")
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

// Diagnose returns the CBOR diagnostic notation of one encoded record.
func Diagnose(rec Record) (string, error) {
	data, err := encMode.Marshal(rec)
	if err != nil {
		return "", errors.Wrap(errors.PhaseTrace, errors.KindInvalidData, err, "encode record")
	}
	return cbor.Diagnose(data)
}
