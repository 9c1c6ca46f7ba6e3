package experiment

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"gorm.io/gorm"
)

// WriteErrorKind classifies a failed assignment write.
type WriteErrorKind int

const (
	WriteOK WriteErrorKind = iota
	// WriteDuplicate: another request stored the (experiment, unit) pair first.
	WriteDuplicate
	// WriteTransient: timeouts and dropped connections, worth one retry.
	WriteTransient
	// WriteFatal: schema or constraint problems a retry will not fix.
	WriteFatal
)

func (k WriteErrorKind) String() string {
	switch k {
	case WriteOK:
		return "ok"
	case WriteDuplicate:
		return "duplicate"
	case WriteTransient:
		return "transient"
	default:
		return "fatal"
	}
}

func ClassifyWriteError(err error) WriteErrorKind {
	if err == nil {
		return WriteOK
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return WriteDuplicate
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return WriteTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return WriteTransient
	}
	return WriteFatal
}
