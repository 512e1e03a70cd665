package common

const (
	BSIZE     uint64 = 512 // block size
	NDIRECT   uint64 = 12
	NINDIRECT uint64 = BSIZE / 4 // # blkno per indirect block
	MAXFILE   uint64 = NDIRECT + NINDIRECT

	INODESZ uint64 = 64 // on-disk size
	IPB     uint64 = BSIZE / INODESZ

	DIRSIZ   uint64 = 14
	DIRENTSZ uint64 = 2 + DIRSIZ

	BPB uint64 = BSIZE * 8 // bitmap bits per block

	SUPERBLK Bnum = 1
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	ROOTINUM Inum = 1
	NULLBNUM Bnum = 0
)

// Kind is the on-disk inode type.
type Kind uint16

const (
	T_FREE Kind = 0
	T_DIR  Kind = 1
	T_FILE Kind = 2
	T_DEV  Kind = 3
)

func (k Kind) Valid() bool {
	return k == T_FREE || k == T_DIR || k == T_FILE || k == T_DEV
}

func (k Kind) String() string {
	switch k {
	case T_FREE:
		return "free"
	case T_DIR:
		return "dir"
	case T_FILE:
		return "file"
	case T_DEV:
		return "dev"
	}
	return "unknown"
}

func init() {
	if BSIZE%INODESZ != 0 {
		panic("common: BSIZE must be a multiple of INODESZ")
	}
	if BSIZE%DIRENTSZ != 0 {
		panic("common: BSIZE must be a multiple of DIRENTSZ")
	}
}
