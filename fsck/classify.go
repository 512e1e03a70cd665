package fsck

import (
	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/xv6-fsck/common"
)

// classify seeds refs with 1 for every allocated inode and rejects
// unknown inode types. Inode 0 is reserved and never examined.
func (c *Checker) classify() error {
	for i := uint64(1); i < c.sb.Ninodes; i++ {
		inum := common.Inum(i)
		ip, err := c.inode(inum)
		if err != nil {
			return err
		}
		util.DPrintf(3, "classify: %v\n", ip)
		if !ip.Kind.Valid() {
			return mkErr(CorruptInode, inum, common.NULLBNUM, "bad inode type %d", uint16(ip.Kind))
		}
		switch ip.Kind {
		case common.T_FREE:
			c.report.Nfree++
			continue
		case common.T_DIR:
			c.report.Ndir++
		case common.T_FILE:
			c.report.Nfile++
		case common.T_DEV:
			c.report.Ndev++
		}
		c.refs[inum] = 1
	}
	if util.Debug >= 5 {
		return c.dumpBitmap()
	}
	return nil
}

func (c *Checker) dumpBitmap() error {
	for bn := c.sb.DataStart(); bn < c.sb.Size; bn++ {
		alloc, err := c.allocated(common.NULLINUM, bn)
		if err != nil {
			return err
		}
		util.DPrintf(5, "bitmap: block %d allocated %v\n", bn, alloc)
	}
	return nil
}
