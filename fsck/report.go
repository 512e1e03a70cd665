package fsck

import (
	"fmt"
	"io"

	"github.com/rodaine/table"

	"github.com/mit-pdos/xv6-fsck/util/stats"
)

// Report summarises what a check saw.
type Report struct {
	Ninodes  uint64
	Ndir     uint64
	Nfile    uint64
	Ndev     uint64
	Nfree    uint64
	Nblocks  uint64 // data region size
	Nclaimed uint64 // data blocks reached by the walk, indirect blocks included

	Phases [nPhase]stats.Phase
}

func (r *Report) String() string {
	return fmt.Sprintf("%d/%d inodes (%d dirs, %d files, %d devs), %d/%d data blocks",
		r.Ndir+r.Nfile+r.Ndev, r.Ninodes, r.Ndir, r.Nfile, r.Ndev, r.Nclaimed, r.Nblocks)
}

func (r *Report) WriteTable(w io.Writer) {
	tbl := table.New("", "count")
	tbl.AddRow("inodes", r.Ninodes)
	tbl.AddRow("directories", r.Ndir)
	tbl.AddRow("files", r.Nfile)
	tbl.AddRow("devices", r.Ndev)
	tbl.AddRow("free inodes", r.Nfree)
	tbl.AddRow("data blocks", r.Nblocks)
	tbl.AddRow("blocks in use", r.Nclaimed)
	tbl.WithWriter(w)
	tbl.Print()
}

func (r *Report) WriteStats(w io.Writer) {
	stats.WriteTable(phaseNames, r.Phases[:], w)
}
