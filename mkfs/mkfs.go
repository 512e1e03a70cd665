// Package mkfs builds xv6 file-system images in memory.
package mkfs

import (
	"errors"
	"fmt"
	"os"

	"github.com/mit-pdos/go-journal/alloc"
	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/xv6-fsck/common"
	"github.com/mit-pdos/xv6-fsck/dir"
	"github.com/mit-pdos/xv6-fsck/inode"
	"github.com/mit-pdos/xv6-fsck/marshal"
	"github.com/mit-pdos/xv6-fsck/super"
)

var (
	ErrNoSpace     = errors.New("no free data blocks")
	ErrNoInodes    = errors.New("no free inodes")
	ErrTooLarge    = errors.New("file too large")
	ErrNameTooLong = errors.New("invalid or too long name")
	ErrExists      = errors.New("file exists")
	ErrNotDir      = errors.New("not a directory")
	ErrIsDir       = errors.New("is a directory")
	ErrConfig      = errors.New("bad file-system geometry")
)

type Config struct {
	Size    uint64 // total blocks
	Ninodes uint64
	Nlog    uint64
}

// DefaultConfig matches xv6's FSSIZE, NINODES and LOGSIZE.
func DefaultConfig() Config {
	return Config{Size: 1000, Ninodes: 200, Nlog: 30}
}

type Builder struct {
	sb        *super.Super
	img       []byte
	balloc    *alloc.Alloc
	inuse     []bool
	freeinode common.Inum
}

func New(cfg Config) (*Builder, error) {
	nbitmap := cfg.Size/common.BPB + 1
	ninodeblocks := cfg.Ninodes/common.IPB + 1
	nmeta := 2 + cfg.Nlog + ninodeblocks + nbitmap
	if cfg.Ninodes < 2 || cfg.Ninodes > 1<<16 {
		return nil, fmt.Errorf("%w: ninodes %d", ErrConfig, cfg.Ninodes)
	}
	if cfg.Size >= 1<<32 || nmeta >= cfg.Size {
		return nil, fmt.Errorf("%w: size %d with %d metadata blocks", ErrConfig, cfg.Size, nmeta)
	}
	sb := &super.Super{
		Size:       cfg.Size,
		Nblocks:    cfg.Size - nmeta,
		Ninodes:    cfg.Ninodes,
		Nlog:       cfg.Nlog,
		LogStart:   2,
		InodeStart: 2 + cfg.Nlog,
		BmapStart:  2 + cfg.Nlog + ninodeblocks,
	}
	util.DPrintf(1, "mkfs: nmeta %d (boot, super, log %d inode %d bitmap %d) %v\n",
		nmeta, cfg.Nlog, ninodeblocks, nbitmap, sb)

	// alloc wants a multiple of 8 numbers; the tail past Size stays used.
	nbits := util.RoundUp(cfg.Size, 8) * 8
	a := alloc.MkMaxAlloc(nbits)
	for bn := uint64(0); bn < nbits; bn++ {
		if bn < sb.DataStart() || bn >= cfg.Size {
			a.MarkUsed(bn)
		}
	}
	b := &Builder{
		sb:        sb,
		img:       make([]byte, cfg.Size*common.BSIZE),
		balloc:    a,
		inuse:     make([]bool, cfg.Size),
		freeinode: common.ROOTINUM,
	}
	copy(b.block(common.SUPERBLK), sb.Encode())

	root, err := b.ialloc(common.T_DIR)
	if err != nil {
		return nil, err
	}
	if root.Inum != common.ROOTINUM {
		panic("mkfs: root is not inode 1")
	}
	if err := b.initDir(root, root.Inum); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Builder) Superblock() *super.Super {
	return b.sb
}

func (b *Builder) Root() common.Inum {
	return common.ROOTINUM
}

func (b *Builder) block(bn common.Bnum) []byte {
	off := bn * common.BSIZE
	return b.img[off : off+common.BSIZE]
}

func (b *Builder) balloc1() (common.Bnum, error) {
	bn := b.balloc.AllocNum()
	if bn == common.NULLBNUM {
		return bn, ErrNoSpace
	}
	if bn < b.sb.DataStart() || bn >= b.sb.Size {
		panic("mkfs: allocated metadata block")
	}
	b.inuse[bn] = true
	return bn, nil
}

func (b *Builder) rinode(inum common.Inum) *inode.Dinode {
	bn, off := b.sb.InodeBlock(inum)
	return inode.Decode(b.block(bn)[off:off+common.INODESZ], inum)
}

func (b *Builder) winode(ip *inode.Dinode) {
	bn, off := b.sb.InodeBlock(ip.Inum)
	copy(b.block(bn)[off:off+common.INODESZ], ip.Encode())
}

func (b *Builder) ialloc(kind common.Kind) (*inode.Dinode, error) {
	if uint64(b.freeinode) >= b.sb.Ninodes {
		return nil, ErrNoInodes
	}
	ip := &inode.Dinode{
		Inum:  b.freeinode,
		Kind:  kind,
		Nlink: 1,
		Addrs: make([]common.Bnum, inode.NADDRS),
	}
	b.freeinode++
	b.winode(ip)
	util.DPrintf(3, "ialloc: %v\n", ip)
	return ip, nil
}

// bmap returns the block holding logical block fbn of ip, allocating it
// (and the indirect block) if needed.
func (b *Builder) bmap(ip *inode.Dinode, fbn uint64) (common.Bnum, error) {
	if fbn >= common.MAXFILE {
		return common.NULLBNUM, ErrTooLarge
	}
	if fbn < common.NDIRECT {
		if ip.Addrs[fbn] == common.NULLBNUM {
			bn, err := b.balloc1()
			if err != nil {
				return bn, err
			}
			ip.Addrs[fbn] = bn
		}
		return ip.Addrs[fbn], nil
	}
	if ip.Addrs[common.NDIRECT] == common.NULLBNUM {
		bn, err := b.balloc1()
		if err != nil {
			return bn, err
		}
		ip.Addrs[common.NDIRECT] = bn
	}
	ind := b.block(ip.Addrs[common.NDIRECT])
	bn := marshal.BnumGet(ind, fbn-common.NDIRECT)
	if bn == common.NULLBNUM {
		var err error
		bn, err = b.balloc1()
		if err != nil {
			return bn, err
		}
		marshal.BnumPut(ind, fbn-common.NDIRECT, bn)
	}
	return bn, nil
}

// iappend appends data to the end of ip and writes ip back.
func (b *Builder) iappend(ip *inode.Dinode, data []byte) error {
	off := ip.Size
	for len(data) > 0 {
		bn, err := b.bmap(ip, off/common.BSIZE)
		if err != nil {
			b.winode(ip)
			return err
		}
		boff := off % common.BSIZE
		n := util.Min(common.BSIZE-boff, uint64(len(data)))
		copy(b.block(bn)[boff:boff+n], data[:n])
		data = data[n:]
		off += n
		ip.Size = off
	}
	b.winode(ip)
	return nil
}

func (b *Builder) lookup(dp *inode.Dinode, name string) common.Inum {
	for fbn := uint64(0); fbn*common.BSIZE < dp.Size; fbn++ {
		bn, err := b.bmap(dp, fbn)
		if err != nil {
			break
		}
		if inum, ok := dir.Lookup(b.block(bn), []byte(name)); ok {
			return inum
		}
	}
	return common.NULLINUM
}

func (b *Builder) addEntry(dp *inode.Dinode, name string, inum common.Inum) error {
	return b.iappend(dp, dir.Encode(dir.Dirent{Inum: inum, Name: name}))
}

func (b *Builder) initDir(dp *inode.Dinode, parent common.Inum) error {
	if err := b.addEntry(dp, ".", dp.Inum); err != nil {
		return err
	}
	return b.addEntry(dp, "..", parent)
}

func (b *Builder) parentDir(parent common.Inum, name string) (*inode.Dinode, error) {
	if !dir.ValidName(name) || dir.IsDot(name) || dir.IsDotDot(name) {
		return nil, fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}
	if uint64(parent) >= b.sb.Ninodes || parent == common.NULLINUM {
		return nil, fmt.Errorf("%w: inode %d", ErrNotDir, parent)
	}
	dp := b.rinode(parent)
	if dp.Kind != common.T_DIR {
		return nil, fmt.Errorf("%w: inode %d", ErrNotDir, parent)
	}
	if b.lookup(dp, name) != common.NULLINUM {
		return nil, fmt.Errorf("%w: %q in directory %d", ErrExists, name, parent)
	}
	return dp, nil
}

func (b *Builder) create(parent common.Inum, name string, kind common.Kind) (*inode.Dinode, error) {
	dp, err := b.parentDir(parent, name)
	if err != nil {
		return nil, err
	}
	ip, err := b.ialloc(kind)
	if err != nil {
		return nil, err
	}
	if err := b.addEntry(dp, name, ip.Inum); err != nil {
		return nil, err
	}
	return ip, nil
}

func (b *Builder) Mkdir(parent common.Inum, name string) (common.Inum, error) {
	ip, err := b.create(parent, name, common.T_DIR)
	if err != nil {
		return common.NULLINUM, err
	}
	if err := b.initDir(ip, parent); err != nil {
		return common.NULLINUM, err
	}
	return ip.Inum, nil
}

func (b *Builder) Create(parent common.Inum, name string, data []byte) (common.Inum, error) {
	if uint64(len(data)) > inode.MaxFileSize() {
		return common.NULLINUM, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	ip, err := b.create(parent, name, common.T_FILE)
	if err != nil {
		return common.NULLINUM, err
	}
	if err := b.iappend(ip, data); err != nil {
		return common.NULLINUM, err
	}
	return ip.Inum, nil
}

func (b *Builder) Mknod(parent common.Inum, name string, major uint16, minor uint16) (common.Inum, error) {
	ip, err := b.create(parent, name, common.T_DEV)
	if err != nil {
		return common.NULLINUM, err
	}
	ip.Major = major
	ip.Minor = minor
	b.winode(ip)
	return ip.Inum, nil
}

// Link adds another name for a file or device.
func (b *Builder) Link(parent common.Inum, name string, inum common.Inum) error {
	if uint64(inum) >= b.sb.Ninodes {
		return fmt.Errorf("%w: inode %d", ErrNoInodes, inum)
	}
	ip := b.rinode(inum)
	if ip.Kind == common.T_DIR {
		return fmt.Errorf("%w: inode %d", ErrIsDir, inum)
	}
	if ip.IsFree() {
		return fmt.Errorf("link to free inode %d", inum)
	}
	dp, err := b.parentDir(parent, name)
	if err != nil {
		return err
	}
	if err := b.addEntry(dp, name, inum); err != nil {
		return err
	}
	ip.Nlink++
	b.winode(ip)
	return nil
}

// Bytes writes the bitmap and returns the image. The Builder may still be
// used afterwards; call Bytes again to refresh the bitmap.
func (b *Builder) Bytes() []byte {
	nbitmap := b.sb.BitmapBlocks()
	for i := uint64(0); i < nbitmap; i++ {
		blk := b.block(b.sb.BmapStart + i)
		for j := range blk {
			blk[j] = 0
		}
	}
	for bn := uint64(0); bn < b.sb.Size; bn++ {
		if bn < b.sb.DataStart() || b.inuse[bn] {
			off := b.sb.BmapStart*common.BSIZE + bn/8
			b.img[off] |= 1 << (bn % 8)
		}
	}
	util.DPrintf(1, "mkfs: %d data blocks allocated, %d inodes\n",
		b.sb.Nblocks-b.balloc.NumFree(), b.freeinode)
	return b.img
}

func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0644)
}
