package fsck

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/xv6-fsck/common"
)

// Kind classifies an inconsistency. A Kind is itself an error so that
// callers can write errors.Is(err, fsck.OrphanInode).
type Kind int

const (
	SizeInconsistent Kind = iota + 1
	CorruptInode
	MissingRoot
	MalformedDirectory
	BadAddress
	BlockReused
	BitmapMismatch
	DanglingReference
	OrphanInode
	MultiplyLinkedDirectory
	LinkCountMismatch
	SizeMismatch
	OutOfRange
)

var kindNames = []string{
	"",
	"SizeInconsistent",
	"CorruptInode",
	"MissingRoot",
	"MalformedDirectory",
	"BadAddress",
	"BlockReused",
	"BitmapMismatch",
	"DanglingReference",
	"OrphanInode",
	"MultiplyLinkedDirectory",
	"LinkCountMismatch",
	"SizeMismatch",
	"OutOfRange",
}

func (k Kind) String() string {
	if k <= 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) Error() string {
	return k.String()
}

// Error reports the first inconsistency found. Inum and Bnum are zero when
// they do not apply; neither inode 0 nor block 0 can be the subject of a
// violation.
type Error struct {
	Kind Kind
	Inum common.Inum
	Bnum common.Bnum
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := "fsck: " + e.Kind.String()
	if e.Inum != common.NULLINUM {
		s += fmt.Sprintf(": inode %d", e.Inum)
	}
	if e.Bnum != common.NULLBNUM {
		s += fmt.Sprintf(": block %d", e.Bnum)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func mkErr(kind Kind, inum common.Inum, bn common.Bnum, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Inum: inum, Bnum: bn, Msg: fmt.Sprintf(format, a...)}
}

// KindOf returns the Kind of err, or 0 if err is not an inconsistency.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
