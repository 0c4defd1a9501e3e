package afesim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/farcloser/primordium/fault"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim/internal/types"
)

// Frames read per call on the underlying reader.
const framesPerRead = 4096

// DecodePCM reads interleaved little-endian signed PCM and returns it in volts, one row per frame and one column per
// channel. A sample at digital full scale maps to fullScale volts. A trailing incomplete frame is dropped.
func DecodePCM(reader io.Reader, bitDepth, channels int, fullScale float64) (*mat.Dense, error) {
	var maxVal float64

	depth := types.BitDepth(bitDepth) //nolint:gosec // validated below

	switch depth {
	case types.Depth16:
		maxVal = 1 << 15
	case types.Depth24:
		maxVal = 1 << 23
	case types.Depth32:
		maxVal = 1 << 31
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrConfiguration, bitDepth)
	}

	if channels < 1 {
		return nil, fmt.Errorf("%w: channel count must be positive, got %d", ErrConfiguration, channels)
	}

	bytesPerSample := bitDepth / 8
	frameSize := bytesPerSample * channels
	buf := make([]byte, frameSize*framesPerRead)
	scale := fullScale / maxVal

	var (
		samples []float64
		pending int
	)

	for {
		n, err := reader.Read(buf[pending:])
		n += pending

		completeFrames := (n / frameSize) * frameSize
		data := buf[:completeFrames]

		switch depth {
		case types.Depth16:
			for i := 0; i < len(data); i += 2 {
				samples = append(samples, float64(int16(binary.LittleEndian.Uint16(data[i:])))*scale) //nolint:gosec // two's complement conversion for signed PCM samples
			}
		case types.Depth24:
			for i := 0; i < len(data); i += 3 {
				raw := int32(data[i]) | int32(data[i+1])<<8 | int32(data[i+2])<<16
				if raw&0x800000 != 0 {
					raw |= ^0xFFFFFF
				}

				samples = append(samples, float64(raw)*scale)
			}
		case types.Depth32:
			for i := 0; i < len(data); i += 4 {
				samples = append(samples, float64(int32(binary.LittleEndian.Uint32(data[i:])))*scale) //nolint:gosec // two's complement conversion for signed PCM samples
			}
		default:
		}

		// Keep a partial frame for the next read.
		pending = copy(buf, buf[completeFrames:n])

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no complete frame in input", ErrInvalidInput)
	}

	return mat.NewDense(len(samples)/channels, channels, samples), nil
}
