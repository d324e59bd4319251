package ipc

import (
	"github.com/wippyai/hle/errors"
)

const (
	// HeaderSize is the fixed frame header: three u32 words.
	HeaderSize = 12

	// MaxDataSize bounds the raw payload of one frame.
	MaxDataSize = 0x1000

	// MaxHandles bounds the handles carried by one frame.
	MaxHandles = 15
)

// MarshalRequest frames r as: command, data length, handle count, data, handles.
func MarshalRequest(r Request) []byte {
	w := NewWriter()
	w.U32(r.Command)
	w.U32(uint32(len(r.Data)))
	w.U32(uint32(len(r.Handles)))
	w.Raw(r.Data)
	for _, h := range r.Handles {
		w.U32(h)
	}
	return w.Bytes()
}

// UnmarshalRequest decodes a request frame. Data is copied out of frame.
func UnmarshalRequest(frame []byte) (Request, error) {
	rd := NewReader(frame)
	cmd, dataLen, count, err := readHeader(rd, "request")
	if err != nil {
		return Request{}, err
	}

	req := Request{Command: cmd}
	if req.Data, err = readData(rd, dataLen); err != nil {
		return Request{}, err
	}
	if count > 0 {
		req.Handles = make([]uint32, count)
		for i := range req.Handles {
			if req.Handles[i], err = rd.U32(); err != nil {
				return Request{}, err
			}
		}
	}
	if err := expectEnd(rd, "request"); err != nil {
		return Request{}, err
	}
	return req, nil
}

// MarshalResponse frames r as: result, data length, handle count, data, (handle, mode) pairs.
func MarshalResponse(r Response) []byte {
	w := NewWriter()
	w.U32(uint32(r.Result))
	w.U32(uint32(len(r.Data)))
	w.U32(uint32(len(r.Handles)))
	w.Raw(r.Data)
	for _, h := range r.Handles {
		w.U32(h.Handle)
		w.U32(uint32(h.Mode))
	}
	return w.Bytes()
}

// UnmarshalResponse decodes a response frame.
func UnmarshalResponse(frame []byte) (Response, error) {
	rd := NewReader(frame)
	result, dataLen, count, err := readHeader(rd, "response")
	if err != nil {
		return Response{}, err
	}

	resp := Response{Result: ResultCode(result)}
	if resp.Data, err = readData(rd, dataLen); err != nil {
		return Response{}, err
	}
	if count > 0 {
		resp.Handles = make([]HandleDesc, count)
		for i := range resp.Handles {
			h, err := rd.U32()
			if err != nil {
				return Response{}, err
			}
			mode, err := rd.U32()
			if err != nil {
				return Response{}, err
			}
			if HandleMode(mode) > HandleMove {
				return Response{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Op("response").
					Value(mode).
					Detail("handle mode %d", mode).
					Build()
			}
			resp.Handles[i] = HandleDesc{Handle: h, Mode: HandleMode(mode)}
		}
	}
	if err := expectEnd(rd, "response"); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func readHeader(rd *Reader, what string) (word, dataLen, count uint32, err error) {
	if rd.Remaining() < HeaderSize {
		return 0, 0, 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Op(what).
			Detail("frame of %d bytes is shorter than the header", rd.Remaining()).
			Build()
	}
	word, _ = rd.U32()
	dataLen, _ = rd.U32()
	count, _ = rd.U32()

	if dataLen > MaxDataSize {
		return 0, 0, 0, errors.New(errors.PhaseDecode, errors.KindOutOfRange).
			Op(what).
			Value(dataLen).
			Detail("data length %d exceeds %d", dataLen, MaxDataSize).
			Build()
	}
	if count > MaxHandles {
		return 0, 0, 0, errors.New(errors.PhaseDecode, errors.KindOutOfRange).
			Op(what).
			Value(count).
			Detail("handle count %d exceeds %d", count, MaxHandles).
			Build()
	}
	return word, dataLen, count, nil
}

func readData(rd *Reader, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	b, err := rd.Bytes(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func expectEnd(rd *Reader, what string) error {
	if rd.Remaining() != 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Op(what).
			Detail("%d trailing bytes", rd.Remaining()).
			Build()
	}
	return nil
}
