package fsck

import (
	"github.com/mit-pdos/xv6-fsck/common"
)

// checkLinks compares the references seen by the walk with each inode's
// declared link count. The root is exempt: it has no parent entry.
func (c *Checker) checkLinks() error {
	for i := uint64(common.ROOTINUM) + 1; i < c.sb.Ninodes; i++ {
		inum := common.Inum(i)
		refs := c.refs[inum]
		if refs == 0 {
			continue
		}
		if refs == 1 {
			return mkErr(OrphanInode, inum, common.NULLBNUM, "inode marked in use but not found in a directory")
		}
		observed := uint64(refs - 1)
		ip, err := c.inode(inum)
		if err != nil {
			return err
		}
		switch ip.Kind {
		case common.T_DIR:
			if observed != 1 {
				return mkErr(MultiplyLinkedDirectory, inum, common.NULLBNUM,
					"directory appears %d times in file system", observed)
			}
		case common.T_FILE, common.T_DEV:
			if observed != uint64(ip.Nlink) {
				return mkErr(LinkCountMismatch, inum, common.NULLBNUM,
					"nlink %d but %d directory entries", ip.Nlink, observed)
			}
		}
	}
	return nil
}

// checkBitmap requires the bitmap and the set of claimed data blocks to be
// identical.
func (c *Checker) checkBitmap() error {
	for bn := c.sb.DataStart(); bn < c.sb.Size; bn++ {
		alloc, err := c.allocated(common.NULLINUM, bn)
		if err != nil {
			return err
		}
		if c.claimed[bn] && !alloc {
			return mkErr(BitmapMismatch, common.NULLINUM, bn, "block claimed by an inode but marked free in bitmap")
		}
		if !c.claimed[bn] && alloc {
			return mkErr(BitmapMismatch, common.NULLINUM, bn, "bitmap marks block in use but it is not referenced")
		}
	}
	return nil
}
