package device

import (
	"github.com/apache/arrow/go/v13/arrow/memory"
)

// HostArena owns host allocations made during one invocation.
type HostArena struct {
	mem  memory.Allocator
	bufs [][]byte
}

func NewHostArena(mem memory.Allocator) *HostArena {
	return &HostArena{mem: mem}
}

func (a *HostArena) Alloc(size int) []byte {
	buf := a.mem.Allocate(size)
	a.bufs = append(a.bufs, buf)
	return buf
}

func (a *HostArena) Close() {
	for _, buf := range a.bufs {
		a.mem.Free(buf)
	}
	a.bufs = nil
}
