package vm

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time snapshot of the registry's live footprint,
// surfaced by the REPL's `:stats` command.
type Stats struct {
	LiveObjects int
	TotalBytes  int64
}

// CurrentStats reports the VM's current live-object count and tracked byte size.
func (vm *VM) CurrentStats() Stats {
	return Stats{LiveObjects: vm.registry.liveObjects, TotalBytes: vm.registry.totalBytes}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d live object(s), %s tracked", s.LiveObjects, humanize.Bytes(uint64(s.TotalBytes)))
}
