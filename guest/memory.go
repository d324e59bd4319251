package guest

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/hle"
	"github.com/wippyai/hle/errors"
)

// Memory adapts wazero linear memory to hle.Memory.
type Memory struct {
	mem api.Memory
}

// NewMemory wraps mem. A nil mem behaves as an empty memory.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, m.outOfBounds(offset, length)
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.outOfBounds(offset, length)
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if m.mem == nil || !m.mem.Write(offset, data) {
		return m.outOfBounds(offset, uint32(len(data)))
	}
	return nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	if m.mem == nil {
		return 0, m.outOfBounds(offset, 4)
	}
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.outOfBounds(offset, 4)
	}
	return v, nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if m.mem == nil || !m.mem.WriteUint32Le(offset, value) {
		return m.outOfBounds(offset, 4)
	}
	return nil
}

func (m *Memory) outOfBounds(offset, length uint32) error {
	return errors.OutOfBounds(errors.PhaseGuest, int(offset), int(length), int(m.Size()))
}

var _ hle.Memory = (*Memory)(nil)
