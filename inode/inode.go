package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/xv6-fsck/common"
)

const NADDRS uint64 = common.NDIRECT + 1 // # blk in an inode's addrs array

// Dinode is the on-disk inode.
type Dinode struct {
	Inum  common.Inum
	Kind  common.Kind
	Major uint16
	Minor uint16
	Nlink uint16
	Size  uint64
	Addrs []common.Bnum
}

func (ip *Dinode) String() string {
	return fmt.Sprintf("# %d k %v n %d sz %d %v", ip.Inum, ip.Kind, ip.Nlink, ip.Size, ip.Addrs)
}

// The four 16-bit fields are packed pairwise into 32-bit words.
func (ip *Dinode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(uint32(ip.Kind) | uint32(ip.Major)<<16)
	enc.PutInt32(uint32(ip.Minor) | uint32(ip.Nlink)<<16)
	enc.PutInt32(uint32(ip.Size))
	for i := uint64(0); i < NADDRS; i++ {
		var a common.Bnum
		if i < uint64(len(ip.Addrs)) {
			a = ip.Addrs[i]
		}
		enc.PutInt32(uint32(a))
	}
	return enc.Finish()
}

func Decode(b []byte, inum common.Inum) *Dinode {
	ip := &Dinode{Inum: inum}
	dec := marshal.NewDec(b)
	km := dec.GetInt32()
	ip.Kind = common.Kind(km & 0xffff)
	ip.Major = uint16(km >> 16)
	mn := dec.GetInt32()
	ip.Minor = uint16(mn & 0xffff)
	ip.Nlink = uint16(mn >> 16)
	ip.Size = uint64(dec.GetInt32())
	ip.Addrs = make([]common.Bnum, NADDRS)
	for i := range ip.Addrs {
		ip.Addrs[i] = uint64(dec.GetInt32())
	}
	return ip
}

func (ip *Dinode) IsFree() bool {
	return ip.Kind == common.T_FREE
}

// Direct returns the k-th direct block address.
func (ip *Dinode) Direct(k uint64) common.Bnum {
	return ip.Addrs[k]
}

// Indirect returns the address of the indirect block, or NULLBNUM.
func (ip *Dinode) Indirect() common.Bnum {
	return ip.Addrs[common.NDIRECT]
}

func MaxFileSize() uint64 {
	return common.MAXFILE * common.BSIZE
}
