// Package fsck checks that the metadata of an xv6 file-system image is
// self-consistent: the inode table, the directory tree reachable from the
// root, and the block allocation bitmap must all agree. It never modifies
// the image, and stops at the first inconsistency.
package fsck

import (
	"errors"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/xv6-fsck/common"
	"github.com/mit-pdos/xv6-fsck/image"
	"github.com/mit-pdos/xv6-fsck/inode"
	"github.com/mit-pdos/xv6-fsck/super"
	"github.com/mit-pdos/xv6-fsck/util/stats"
)

const (
	classifyPhase int = iota
	walkPhase
	linkPhase
	bitmapPhase
	nPhase
)

var phaseNames = []string{"classify", "walk", "links", "bitmap"}

// Checker holds the state of one checking run over an image: the image
// view and the allocation ledger built during the walk.
type Checker struct {
	img *image.Image
	sb  *super.Super

	// refs[i] is 0 for a free inode, 1 once classified as allocated, and
	// 1+n once n directory entries referencing it have been seen.
	refs []uint32
	// claimed[b] is set the first time the walk reaches block b.
	claimed []bool

	report *Report
	phases [nPhase]stats.Phase
}

func New(img *image.Image) *Checker {
	return &Checker{
		img: img,
		sb:  img.Superblock(),
	}
}

func (c *Checker) reset() {
	c.refs = make([]uint32, c.sb.Ninodes)
	c.claimed = make([]bool, c.sb.Size)
	c.report = &Report{
		Ninodes: c.sb.Ninodes,
		Nblocks: c.sb.Nblocks,
	}
	for i := range c.phases {
		c.phases[i].Reset()
	}
}

func (c *Checker) phase(p int, f func() error) error {
	util.DPrintf(1, "fsck: phase %s\n", phaseNames[p])
	return c.phases[p].Time(f)
}

// Check runs the whole check. The returned report is partially filled in
// if err is non-nil.
func (c *Checker) Check() (*Report, error) {
	c.reset()
	defer func() {
		c.report.Phases = c.phases
	}()

	if err := c.phase(classifyPhase, c.classify); err != nil {
		return c.report, err
	}
	if err := c.phase(walkPhase, c.walkRoot); err != nil {
		return c.report, err
	}
	if err := c.phase(linkPhase, c.checkLinks); err != nil {
		return c.report, err
	}
	if err := c.phase(bitmapPhase, c.checkBitmap); err != nil {
		return c.report, err
	}
	return c.report, nil
}

func (c *Checker) walkRoot() error {
	if c.sb.Ninodes <= uint64(common.ROOTINUM) {
		return mkErr(MissingRoot, common.NULLINUM, common.NULLBNUM,
			"ninodes %d leaves no room for a root inode", c.sb.Ninodes)
	}
	root, err := c.inode(common.ROOTINUM)
	if err != nil {
		return err
	}
	if root.Kind != common.T_DIR {
		return mkErr(MissingRoot, common.ROOTINUM, common.NULLBNUM,
			"root directory does not exist (type %v)", root.Kind)
	}
	return c.walk(common.ROOTINUM, common.ROOTINUM)
}

func (c *Checker) inode(inum common.Inum) (*inode.Dinode, error) {
	ip, err := c.img.Inode(inum)
	if err != nil {
		return nil, &Error{Kind: OutOfRange, Inum: inum, Err: err}
	}
	return ip, nil
}

func (c *Checker) block(inum common.Inum, bn common.Bnum) ([]byte, error) {
	blk, err := c.img.Block(bn)
	if err != nil {
		return nil, &Error{Kind: OutOfRange, Inum: inum, Bnum: bn, Err: err}
	}
	return blk, nil
}

func (c *Checker) allocated(inum common.Inum, bn common.Bnum) (bool, error) {
	ok, err := c.img.IsBlockAllocated(bn)
	if err != nil {
		return false, &Error{Kind: OutOfRange, Inum: inum, Bnum: bn, Err: err}
	}
	return ok, nil
}

func openErr(err error) error {
	if errors.Is(err, image.ErrSize) {
		return &Error{Kind: SizeInconsistent, Err: err}
	}
	return err
}

// CheckFile maps the image at path and checks it. Errors that are not
// inconsistencies (KindOf returns 0) are I/O errors.
func CheckFile(path string) (*Report, error) {
	img, err := image.Open(path)
	if err != nil {
		return nil, openErr(err)
	}
	defer img.Close()
	return New(img).Check()
}

// CheckBytes checks an in-memory image.
func CheckBytes(b []byte) (*Report, error) {
	img, err := image.FromBytes(b)
	if err != nil {
		return nil, openErr(err)
	}
	return New(img).Check()
}
