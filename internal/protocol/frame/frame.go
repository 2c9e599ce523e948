// Package frame owns the length-prefixed frame used for matrix upload and
// download: a 4-byte payload length in native byte order followed by the
// payload bytes.
//
// Both the length prefix and the payload are read through the retry
// discipline.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/danmuck/sideswap/internal/protocol/retry"
)

// HeaderLen is the size of the length prefix.
const HeaderLen = 4

var (
	ErrShortHeader     = errors.New("frame: short length prefix")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

// DefaultLimits allows a 4096x4096 matrix.
func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 16 * 1024 * 1024}
}

func (l Limits) WithDefaults() Limits {
	if l.MaxPayloadBytes == 0 {
		l.MaxPayloadBytes = DefaultLimits().MaxPayloadBytes
	}
	return l
}

// ReadFrame reads one frame and returns its payload.
func ReadFrame(r io.Reader, limits Limits, budget retry.Budget) ([]byte, error) {
	limits = limits.WithDefaults()

	var header [HeaderLen]byte
	if err := retry.ReadFull(r, header[:], budget); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, fmt.Errorf("frame header: %w", err)
	}

	size := DecodeHeader(header[:])
	if size > limits.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, size, limits.MaxPayloadBytes)
	}

	payload := make([]byte, size)
	if size == 0 {
		return payload, nil
	}
	if err := retry.ReadFull(r, payload, budget); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("frame payload: %w", err)
	}
	return payload, nil
}

// WriteFrame writes the length prefix and payload with a single Write call.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	limits = limits.WithDefaults()
	if uint64(len(payload)) > math.MaxUint32 || uint32(len(payload)) > limits.MaxPayloadBytes {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), limits.MaxPayloadBytes)
	}

	buf := make([]byte, HeaderLen+len(payload))
	copy(buf, EncodeHeader(uint32(len(payload))))
	copy(buf[HeaderLen:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: write frame: %w", protocol.ErrIOFailure, err)
	}
	return nil
}

func EncodeHeader(size uint32) []byte {
	buf := make([]byte, HeaderLen)
	binary.NativeEndian.PutUint32(buf, size)
	return buf
}

func DecodeHeader(b []byte) uint32 {
	return binary.NativeEndian.Uint32(b[:HeaderLen])
}
