package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format selects the serialization of an encoded bundle.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatCBOR:
		return Format(name), nil
	default:
		return "", fmt.Errorf("%w: format %q", ErrUnsupported, name)
	}
}

// Compression selects the compression applied after serialization.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression parses a compression name. The empty string means none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd, CompressionLZ4:
		return Compression(name), nil
	default:
		return "", fmt.Errorf("%w: compression %q", ErrUnsupported, name)
	}
}

// MaxDecodedSize bounds the decompressed size of a bundle.
const MaxDecodedSize = 256 << 20

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	// Core deterministic encoding: the same bundle always produces the same bytes.
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("bundle: CBOR encoder initialization failed: " + err.Error())
	}

	// Candidate values decode into map[string]any, never map[any]any.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("bundle: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("bundle: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
	if err != nil {
		panic("bundle: zstd decoder initialization failed: " + err.Error())
	}
}

// EncodeOptions control Encode.
type EncodeOptions struct {
	Format      Format
	Compression Compression
	// Indent pretty-prints JSON output.
	Indent bool
}

// Encode serializes b.
func Encode(b *Bundle, opts EncodeOptions) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatJSON, "":
		if opts.Indent {
			data, err = json.MarshalIndent(b, "", "  ")
		} else {
			data, err = json.Marshal(b)
		}
	case FormatCBOR:
		data, err = encMode.Marshal(b)
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupported, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return compress(data, opts.Compression)
}

// Decode parses an encoded bundle, detecting compression and format from
// the leading bytes.
func Decode(data []byte) (*Bundle, Format, error) {
	raw, err := decompress(data, MaxDecodedSize)
	if err != nil {
		return nil, "", err
	}

	format := detectFormat(raw)
	var b Bundle
	switch format {
	case FormatJSON:
		err = json.Unmarshal(raw, &b)
	case FormatCBOR:
		err = decMode.Unmarshal(raw, &b)
	}
	if err != nil {
		return nil, format, fmt.Errorf("%w: %s: %v", ErrMalformed, format, err)
	}
	if b.Compiled == nil {
		return nil, format, fmt.Errorf("%w: missing compiled collection", ErrMalformed)
	}
	return &b, format, nil
}

func detectFormat(raw []byte) Format {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatCBOR
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone, "":
		return data, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupported, c)
	}
}

// decompress inflates data when it carries a zstd or lz4 frame magic and
// fails with ErrMalformed when the output would exceed limit bytes.
func decompress(data []byte, limit int64) ([]byte, error) {
	var out []byte
	var err error
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		out, err = zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrMalformed, err)
		}
	case bytes.HasPrefix(data, lz4Magic):
		out, err = io.ReadAll(io.LimitReader(lz4.NewReader(bytes.NewReader(data)), limit+1))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrMalformed, err)
		}
	default:
		return data, nil
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: decompressed size exceeds %d bytes", ErrMalformed, limit)
	}
	return out, nil
}
