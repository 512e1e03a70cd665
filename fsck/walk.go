package fsck

import (
	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/xv6-fsck/common"
	"github.com/mit-pdos/xv6-fsck/dir"
	"github.com/mit-pdos/xv6-fsck/inode"
	"github.com/mit-pdos/xv6-fsck/marshal"
)

// A pending visit of inum, reached through a directory entry of parent.
type work struct {
	inum   common.Inum
	parent common.Inum
}

// walk checks the tree rooted at inum depth-first. It keeps its own stack
// so that adversarially deep images cannot exhaust the goroutine stack.
func (c *Checker) walk(inum common.Inum, parent common.Inum) error {
	stack := []work{{inum: inum, parent: parent}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ip, err := c.inode(w.inum)
		if err != nil {
			return err
		}
		switch ip.Kind {
		case common.T_DIR:
			next, err := c.checkDirectory(ip, w.parent)
			if err != nil {
				return err
			}
			// push in reverse so entries are visited in directory order
			for i := len(next) - 1; i >= 0; i-- {
				stack = append(stack, next[i])
			}
		case common.T_FILE, common.T_DEV:
			if err := c.checkLeaf(ip, w.parent); err != nil {
				return err
			}
		default:
			return mkErr(CorruptInode, w.inum, common.NULLBNUM, "bad inode type %d", uint16(ip.Kind))
		}
	}
	return nil
}

// claim records that ip uses block bn.
func (c *Checker) claim(ip *inode.Dinode, bn common.Bnum) error {
	if bn < c.sb.DataStart() || bn >= c.sb.Size {
		return mkErr(BadAddress, ip.Inum, bn, "bad address in inode (data region is [%d,%d))",
			c.sb.DataStart(), c.sb.Size)
	}
	if c.claimed[bn] {
		return mkErr(BlockReused, ip.Inum, bn, "address used more than once")
	}
	c.claimed[bn] = true
	c.report.Nclaimed++
	alloc, err := c.allocated(ip.Inum, bn)
	if err != nil {
		return err
	}
	if !alloc {
		return mkErr(BitmapMismatch, ip.Inum, bn, "address used by inode but marked free in bitmap")
	}
	return nil
}

// walkBlocks claims every block in ip's address list, including the
// indirect block, and calls f (if non-nil) on each data block in logical
// order. It returns the number of data blocks visited.
func (c *Checker) walkBlocks(ip *inode.Dinode, f func(bn common.Bnum, blk []byte) error) (uint64, error) {
	var n uint64
	var ind []byte
	for k := uint64(0); k < common.MAXFILE; k++ {
		var bn common.Bnum
		if k < common.NDIRECT {
			bn = ip.Direct(k)
		} else {
			if ind == nil {
				ibn := ip.Indirect()
				if ibn == common.NULLBNUM {
					break
				}
				if err := c.claim(ip, ibn); err != nil {
					return n, err
				}
				blk, err := c.block(ip.Inum, ibn)
				if err != nil {
					return n, err
				}
				ind = blk
			}
			bn = marshal.BnumGet(ind, k-common.NDIRECT)
		}
		if bn == common.NULLBNUM {
			break
		}
		util.DPrintf(5, "walkBlocks: inode %d block %d @ %d\n", ip.Inum, k, bn)
		if err := c.claim(ip, bn); err != nil {
			return n, err
		}
		n++
		if f == nil {
			continue
		}
		blk, err := c.block(ip.Inum, bn)
		if err != nil {
			return n, err
		}
		if err := f(bn, blk); err != nil {
			return n, err
		}
	}
	return n, nil
}

// checkDirectory checks directory ip, whose entry was found in parent, and
// returns the inodes it references for the first time.
func (c *Checker) checkDirectory(ip *inode.Dinode, parent common.Inum) ([]work, error) {
	var hasDot, hasDotDot uint64
	var next []work
	_, err := c.walkBlocks(ip, func(bn common.Bnum, blk []byte) error {
		for _, de := range dir.Entries(blk) {
			switch {
			case dir.IsDot(de.Name):
				hasDot++
				if de.Inum != ip.Inum {
					return mkErr(MalformedDirectory, ip.Inum, bn, "\".\" refers to inode %d", de.Inum)
				}
			case dir.IsDotDot(de.Name):
				hasDotDot++
				if de.Inum != parent {
					return mkErr(MalformedDirectory, ip.Inum, bn,
						"\"..\" refers to inode %d, parent is %d", de.Inum, parent)
				}
			default:
				w, err := c.reference(ip, bn, de)
				if err != nil {
					return err
				}
				if w != nil {
					next = append(next, *w)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hasDot != 1 {
		return nil, mkErr(MalformedDirectory, ip.Inum, common.NULLBNUM, "%d \".\" entries", hasDot)
	}
	if hasDotDot != 1 {
		return nil, mkErr(MalformedDirectory, ip.Inum, common.NULLBNUM, "%d \"..\" entries", hasDotDot)
	}
	return next, nil
}

// reference accounts for entry de of directory dp. Only the first
// reference to an inode schedules a visit; later ones are hard links whose
// blocks were already claimed, and are settled by checkLinks.
func (c *Checker) reference(dp *inode.Dinode, bn common.Bnum, de dir.Dirent) (*work, error) {
	if uint64(de.Inum) >= c.sb.Ninodes {
		return nil, mkErr(OutOfRange, dp.Inum, bn, "entry %q refers to inode %d >= ninodes %d",
			de.Name, de.Inum, c.sb.Ninodes)
	}
	if c.refs[de.Inum] == 0 {
		return nil, mkErr(DanglingReference, de.Inum, bn,
			"entry %q of directory %d refers to a free inode", de.Name, dp.Inum)
	}
	if de.Inum == common.ROOTINUM {
		return nil, mkErr(MultiplyLinkedDirectory, de.Inum, bn,
			"entry %q of directory %d links to the root", de.Name, dp.Inum)
	}
	c.refs[de.Inum]++
	ip, err := c.inode(de.Inum)
	if err != nil {
		return nil, err
	}
	switch ip.Kind {
	case common.T_DIR, common.T_FILE, common.T_DEV:
	case common.T_FREE:
		return nil, mkErr(DanglingReference, de.Inum, bn,
			"entry %q of directory %d refers to a free inode", de.Name, dp.Inum)
	default:
		return nil, mkErr(CorruptInode, de.Inum, bn, "bad inode type %d", uint16(ip.Kind))
	}
	if c.refs[de.Inum] != 2 {
		util.DPrintf(5, "reference: %d:%s -> %d again\n", dp.Inum, de.Name, de.Inum)
		return nil, nil
	}
	util.DPrintf(5, "reference: %d:%s -> %d\n", dp.Inum, de.Name, de.Inum)
	return &work{inum: de.Inum, parent: dp.Inum}, nil
}

// checkLeaf checks a regular file or device.
func (c *Checker) checkLeaf(ip *inode.Dinode, parent common.Inum) error {
	n, err := c.walkBlocks(ip, nil)
	if err != nil {
		return err
	}
	util.DPrintf(5, "checkLeaf: inode %d (parent %d) %d blocks size %d\n", ip.Inum, parent, n, ip.Size)
	if ip.Size > n*common.BSIZE {
		return mkErr(SizeMismatch, ip.Inum, common.NULLBNUM,
			"size %d exceeds %d allocated blocks", ip.Size, n)
	}
	return nil
}
