package mkfs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/xv6-fsck/common"
	"github.com/mit-pdos/xv6-fsck/image"
	"github.com/mit-pdos/xv6-fsck/marshal"
)

func TestLayout(t *testing.T) {
	assert := assert.New(t)
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	sb := b.Superblock()

	// same geometry as xv6's mkfs for FSSIZE 1000, NINODES 200
	assert.Equal(uint64(1000), sb.Size)
	assert.Equal(uint64(941), sb.Nblocks)
	assert.Equal(uint64(2), sb.LogStart)
	assert.Equal(uint64(32), sb.InodeStart)
	assert.Equal(uint64(58), sb.BmapStart)
	assert.Equal(uint64(59), sb.DataStart())

	img, err := image.FromBytes(b.Bytes())
	require.NoError(t, err)
	assert.Equal(*sb, *img.Superblock())
	root, err := img.Inode(common.ROOTINUM)
	require.NoError(t, err)
	assert.Equal(common.T_DIR, root.Kind)
	assert.Equal(2*common.DIRENTSZ, root.Size)
	alloc, err := img.IsBlockAllocated(root.Addrs[0])
	require.NoError(t, err)
	assert.True(alloc)
}

func TestBadConfig(t *testing.T) {
	_, err := New(Config{Size: 40, Ninodes: 200, Nlog: 30})
	assert.True(t, errors.Is(err, ErrConfig))
	_, err = New(Config{Size: 1000, Ninodes: 1, Nlog: 30})
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestCreateIndirect(t *testing.T) {
	assert := assert.New(t)
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	data := make([]byte, (common.NDIRECT+2)*common.BSIZE)
	for i := range data {
		data[i] = byte(i % 251)
	}
	inum, err := b.Create(b.Root(), "big", data)
	require.NoError(t, err)

	img, err := image.FromBytes(b.Bytes())
	require.NoError(t, err)
	ip, err := img.Inode(inum)
	require.NoError(t, err)
	assert.Equal(uint64(len(data)), ip.Size)
	require.NotEqual(t, common.NULLBNUM, ip.Indirect())

	ind, err := img.Block(ip.Indirect())
	require.NoError(t, err)
	var got []byte
	for k := uint64(0); k < common.NDIRECT+2; k++ {
		var bn common.Bnum
		if k < common.NDIRECT {
			bn = ip.Direct(k)
		} else {
			bn = marshal.BnumGet(ind, k-common.NDIRECT)
		}
		blk, err := img.Block(bn)
		require.NoError(t, err)
		got = append(got, blk...)
	}
	assert.Equal(data, got)
	assert.Equal(common.NULLBNUM, marshal.BnumGet(ind, 2))
}

func TestNames(t *testing.T) {
	assert := assert.New(t)
	b, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = b.Create(b.Root(), "fifteen-letters", nil)
	assert.True(errors.Is(err, ErrNameTooLong))
	_, err = b.Mkdir(b.Root(), "..")
	assert.True(errors.Is(err, ErrNameTooLong))

	f, err := b.Create(b.Root(), "fourteen-chars", nil)
	require.NoError(t, err)
	_, err = b.Create(b.Root(), "fourteen-chars", nil)
	assert.True(errors.Is(err, ErrExists))
	_, err = b.Create(f, "x", nil)
	assert.True(errors.Is(err, ErrNotDir))

	d, err := b.Mkdir(b.Root(), "d")
	require.NoError(t, err)
	assert.True(errors.Is(b.Link(b.Root(), "d2", d), ErrIsDir))
}

func TestTooLarge(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = b.Create(b.Root(), "huge", make([]byte, (common.MAXFILE+1)*common.BSIZE))
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestNoSpace(t *testing.T) {
	b, err := New(Config{Size: 80, Ninodes: 16, Nlog: 4})
	require.NoError(t, err)
	// 80 - (2+4+3+1) = 70 data blocks, one used by the root
	_, err = b.Create(b.Root(), "big", make([]byte, 80*common.BSIZE))
	assert.True(t, errors.Is(err, ErrNoSpace))
}

func TestNoInodes(t *testing.T) {
	b, err := New(Config{Size: 100, Ninodes: 4, Nlog: 4})
	require.NoError(t, err)
	for _, name := range []string{"a", "b"} {
		_, err := b.Create(b.Root(), name, nil)
		require.NoError(t, err)
	}
	_, err = b.Create(b.Root(), "c", nil)
	assert.True(t, errors.Is(err, ErrNoInodes))
}
