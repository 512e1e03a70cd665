package super

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/go-journal/util"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/xv6-fsck/common"
)

const SUPERSZ uint64 = 7 * 4 // on-disk size

var ErrSize = errors.New("superblock size inconsistent")

// Super is the on-disk superblock. All counts are in blocks, except
// Ninodes.
type Super struct {
	Size       uint64 // # blocks in the image
	Nblocks    uint64 // # data blocks
	Ninodes    uint64
	Nlog       uint64
	LogStart   common.Bnum
	InodeStart common.Bnum
	BmapStart  common.Bnum
}

func (sb *Super) String() string {
	return fmt.Sprintf("size %d nblocks %d ninodes %d nlog %d logstart %d inodestart %d bmapstart %d",
		sb.Size, sb.Nblocks, sb.Ninodes, sb.Nlog, sb.LogStart, sb.InodeStart, sb.BmapStart)
}

func (sb *Super) Encode() []byte {
	enc := marshal.NewEnc(SUPERSZ)
	enc.PutInt32(uint32(sb.Size))
	enc.PutInt32(uint32(sb.Nblocks))
	enc.PutInt32(uint32(sb.Ninodes))
	enc.PutInt32(uint32(sb.Nlog))
	enc.PutInt32(uint32(sb.LogStart))
	enc.PutInt32(uint32(sb.InodeStart))
	enc.PutInt32(uint32(sb.BmapStart))
	return enc.Finish()
}

func Decode(blk []byte) *Super {
	dec := marshal.NewDec(blk)
	sb := &Super{}
	sb.Size = uint64(dec.GetInt32())
	sb.Nblocks = uint64(dec.GetInt32())
	sb.Ninodes = uint64(dec.GetInt32())
	sb.Nlog = uint64(dec.GetInt32())
	sb.LogStart = uint64(dec.GetInt32())
	sb.InodeStart = uint64(dec.GetInt32())
	sb.BmapStart = uint64(dec.GetInt32())
	return sb
}

func (sb *Super) DataStart() common.Bnum {
	return sb.Size - sb.Nblocks
}

func (sb *Super) InodeBlocks() uint64 {
	return sb.Ninodes/common.IPB + 1
}

// BitmapBlocks is the bitmap size xv6's mkfs lays out, which has a spare
// block when Size is a multiple of BPB.
func (sb *Super) BitmapBlocks() uint64 {
	return sb.Size/common.BPB + 1
}

// bitmapNeeded is the number of blocks holding one bit per block.
func (sb *Super) bitmapNeeded() uint64 {
	return util.RoundUp(sb.Size, common.BPB)
}

// InodeBlock returns the block holding inum and the byte offset of its
// record within that block.
func (sb *Super) InodeBlock(inum common.Inum) (common.Bnum, uint64) {
	return sb.InodeStart + uint64(inum)/common.IPB,
		(uint64(inum) % common.IPB) * common.INODESZ
}

func regionEnd(start uint64, n uint64) (uint64, bool) {
	if util.SumOverflows(start, n) {
		return 0, false
	}
	return start + n, true
}

// Validate checks the superblock against the length of the image it was
// read from, and that the log, inode and bitmap regions lie below the data
// region.
func (sb *Super) Validate(imageLen uint64) error {
	if sb.Size*common.BSIZE != imageLen {
		return fmt.Errorf("%w: size %d blocks but image is %d bytes",
			ErrSize, sb.Size, imageLen)
	}
	if sb.Nblocks > sb.Size {
		return fmt.Errorf("%w: nblocks %d > size %d", ErrSize, sb.Nblocks, sb.Size)
	}
	regions := []struct {
		name  string
		start uint64
		n     uint64
	}{
		{"log", sb.LogStart, sb.Nlog},
		{"inode", sb.InodeStart, sb.InodeBlocks()},
		{"bitmap", sb.BmapStart, sb.bitmapNeeded()},
	}
	for _, r := range regions {
		if r.n == 0 {
			continue
		}
		end, ok := regionEnd(r.start, r.n)
		if !ok || r.start <= common.SUPERBLK || end > sb.DataStart() {
			return fmt.Errorf("%w: %s region [%d,+%d) outside metadata area [2,%d)",
				ErrSize, r.name, r.start, r.n, sb.DataStart())
		}
	}
	return nil
}
