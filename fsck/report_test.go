package fsck

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportTables(t *testing.T) {
	assert := assert.New(t)
	ts := newTest(t)
	ts.create(ts.b.Root(), "f", 10)
	ts.finish()
	r, err := ts.check()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	r.WriteTable(buf)
	assert.Contains(buf.String(), "directories")
	assert.Contains(buf.String(), "blocks in use")

	buf.Reset()
	r.WriteStats(buf)
	for _, name := range phaseNames {
		assert.Contains(buf.String(), name)
	}
	assert.Contains(r.String(), "2/200 inodes")
}

func TestKindNames(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(int(OutOfRange)+1, len(kindNames))
	assert.Equal("SizeInconsistent", SizeInconsistent.String())
	assert.Equal("SizeMismatch", SizeMismatch.Error())
	assert.Equal("Kind(99)", Kind(99).String())

	e := mkErr(BlockReused, 3, 70, "address used more than once")
	assert.Equal("fsck: BlockReused: inode 3: block 70: address used more than once", e.Error())
}
