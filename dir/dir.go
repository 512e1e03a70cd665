package dir

import (
	"bytes"

	"github.com/goose-lang/std"

	"github.com/mit-pdos/xv6-fsck/common"
	"github.com/mit-pdos/xv6-fsck/marshal"
)

const MAXNAMELEN = common.DIRSIZ

type Dirent struct {
	Inum common.Inum
	Name string // <= MAXNAMELEN, NUL padded on disk
}

func IsDot(name string) bool {
	return name == "."
}

func IsDotDot(name string) bool {
	return name == ".."
}

func ValidName(name string) bool {
	return name != "" && uint64(len(name)) <= MAXNAMELEN &&
		bytes.IndexByte([]byte(name), 0) < 0
}

// Caller must ensure de.Name fits
func Encode(de Dirent) []byte {
	d := make([]byte, common.DIRENTSZ)
	marshal.UInt16Put(d[:2], uint16(de.Inum))
	marshal.PutBytes(d[2:], []byte(de.Name))
	return d
}

func rawName(d []byte) []byte {
	name := d[2:common.DIRENTSZ]
	if n := bytes.IndexByte(name, 0); n >= 0 {
		name = name[:n]
	}
	return name
}

func Decode(d []byte) Dirent {
	de := Dirent{}
	de.Inum = common.Inum(marshal.UInt16Get(d[:2]))
	de.Name = string(rawName(d))
	return de
}

// Entries decodes the packed directory entries of blk, stopping at the
// first empty (zero inum) slot.
func Entries(blk []byte) []Dirent {
	var des []Dirent
	for off := uint64(0); off+common.DIRENTSZ <= uint64(len(blk)); off += common.DIRENTSZ {
		de := Decode(blk[off : off+common.DIRENTSZ])
		if de.Inum == common.NULLINUM {
			break
		}
		des = append(des, de)
	}
	return des
}

// Lookup finds name among the entries of blk, comparing on-disk bytes
// without decoding each entry.
func Lookup(blk []byte, name []byte) (common.Inum, bool) {
	for off := uint64(0); off+common.DIRENTSZ <= uint64(len(blk)); off += common.DIRENTSZ {
		d := blk[off : off+common.DIRENTSZ]
		inum := common.Inum(marshal.UInt16Get(d[:2]))
		if inum == common.NULLINUM {
			break
		}
		if std.BytesEqual(rawName(d), name) {
			return inum, true
		}
	}
	return common.NULLINUM, false
}
