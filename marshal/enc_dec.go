package marshal

import (
	"encoding/binary"

	"github.com/tchajed/goose/machine"

	"github.com/mit-pdos/xv6-fsck/common"
)

// goose's machine package has no 16-bit accessors; xv6 stores inode
// numbers in directory entries as uint16.
func UInt16Get(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func UInt16Put(b []byte, x uint16) {
	binary.LittleEndian.PutUint16(b, x)
}

// BnumGet returns the i-th block number stored in an indirect block.
func BnumGet(blk []byte, i uint64) common.Bnum {
	off := i * 4
	return common.Bnum(machine.UInt32Get(blk[off : off+4]))
}

func BnumPut(blk []byte, i uint64, bn common.Bnum) {
	off := i * 4
	machine.UInt32Put(blk[off:off+4], uint32(bn))
}

func PutBytes(d []byte, b []byte) {
	for i := uint64(0); i < uint64(len(b)); i++ {
		d[i] = b[i]
	}
}
