package hle

// Memory is guest linear memory as seen by host bindings. Offsets are guest
// addresses; every access is bounds-checked.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	WriteU32(offset uint32, value uint32) error
	Size() uint32
}
