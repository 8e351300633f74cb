package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Codec compresses archived months.
type Codec interface {
	// Name is the value accepted by CodecByName.
	Name() string
	// Extension is appended to object names, without a dot. Empty for none.
	Extension() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Codec names.
const (
	CodecZstd = "zstd"
	CodecGzip = "gzip"
	CodecNone = "none"
)

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case CodecZstd, "":
		return zstdCodec{}, nil
	case CodecGzip:
		return gzipCodec{}, nil
	case CodecNone:
		return noneCodec{}, nil
	default:
		return nil, fmt.Errorf("archive: unknown codec %q", name)
	}
}

type zstdCodec struct{}

func (zstdCodec) Name() string      { return CodecZstd }
func (zstdCodec) Extension() string { return "zst" }

func (zstdCodec) Encode(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

func (zstdCodec) Decode(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

type gzipCodec struct{}

func (gzipCodec) Name() string      { return CodecGzip }
func (gzipCodec) Extension() string { return "gz" }

func (gzipCodec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type noneCodec struct{}

func (noneCodec) Name() string                       { return CodecNone }
func (noneCodec) Extension() string                  { return "" }
func (noneCodec) Encode(data []byte) ([]byte, error) { return data, nil }
func (noneCodec) Decode(data []byte) ([]byte, error) { return data, nil }
