// Package image exposes a raw xv6 file-system image as a read-only,
// bounds-checked view: superblock, inode table, bitmap bits and blocks.
// Nothing is copied or cached beyond the mapped bytes.
package image

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/xv6-fsck/common"
	"github.com/mit-pdos/xv6-fsck/inode"
	"github.com/mit-pdos/xv6-fsck/super"
)

var ErrOutOfRange = errors.New("index out of range")

// ErrSize is returned when the superblock disagrees with the image.
var ErrSize = super.ErrSize

type Image struct {
	src   *os.File
	bytes []byte
	sb    *super.Super
}

// Open maps the image file at path read-only.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.Size() < int64(2*common.BSIZE) {
		f.Close()
		return nil, fmt.Errorf("%w: image is only %d bytes", ErrSize, stat.Size())
	}
	b, err := unix.Mmap(int(f.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	img, err := mkImage(b)
	if err != nil {
		unix.Munmap(b)
		f.Close()
		return nil, err
	}
	img.src = f
	util.DPrintf(1, "Open %s: %d bytes\n", path, len(b))
	return img, nil
}

// FromBytes wraps an in-memory image. b must not be modified while the
// Image is in use.
func FromBytes(b []byte) (*Image, error) {
	if uint64(len(b)) < 2*common.BSIZE {
		return nil, fmt.Errorf("%w: image is only %d bytes", ErrSize, len(b))
	}
	return mkImage(b)
}

func mkImage(b []byte) (*Image, error) {
	off := common.SUPERBLK * common.BSIZE
	sb := super.Decode(b[off : off+common.BSIZE])
	util.DPrintf(1, "Superblock: %v\n", sb)
	if err := sb.Validate(uint64(len(b))); err != nil {
		return nil, err
	}
	return &Image{bytes: b, sb: sb}, nil
}

// Close unmaps an image returned by Open; it is a no-op for FromBytes.
func (img *Image) Close() error {
	if img.src == nil {
		return nil
	}
	err := unix.Munmap(img.bytes)
	img.bytes = nil
	if cerr := img.src.Close(); err == nil {
		err = cerr
	}
	img.src = nil
	return err
}

func (img *Image) Len() uint64 {
	return uint64(len(img.bytes))
}

func (img *Image) Superblock() *super.Super {
	return img.sb
}

// DataStart is the first block of the data region.
func (img *Image) DataStart() common.Bnum {
	return img.sb.DataStart()
}

// Block returns a read-only view of block bn.
func (img *Image) Block(bn common.Bnum) ([]byte, error) {
	if bn >= img.sb.Size {
		return nil, fmt.Errorf("%w: block %d >= size %d", ErrOutOfRange, bn, img.sb.Size)
	}
	off := bn * common.BSIZE
	return img.bytes[off : off+common.BSIZE : off+common.BSIZE], nil
}

func (img *Image) Inode(inum common.Inum) (*inode.Dinode, error) {
	if uint64(inum) >= img.sb.Ninodes {
		return nil, fmt.Errorf("%w: inode %d >= ninodes %d", ErrOutOfRange, inum, img.sb.Ninodes)
	}
	bn, off := img.sb.InodeBlock(inum)
	blk, err := img.Block(bn)
	if err != nil {
		return nil, err
	}
	return inode.Decode(blk[off:off+common.INODESZ], inum), nil
}

// IsBlockAllocated tests bn's bit in the allocation bitmap.
func (img *Image) IsBlockAllocated(bn common.Bnum) (bool, error) {
	if bn >= img.sb.Size {
		return false, fmt.Errorf("%w: bitmap bit %d >= size %d", ErrOutOfRange, bn, img.sb.Size)
	}
	off := img.sb.BmapStart*common.BSIZE + bn/8
	return img.bytes[off]&(1<<(bn%8)) != 0, nil
}
