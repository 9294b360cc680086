package cache

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
)

// MagicHeader opens every cache blob.
var MagicHeader = []byte("DRVRPAR1")

var ErrInvalidHeader = errors.New("invalid cache blob header")

// ErrBlobTooLarge is returned when a compressed body exceeds maxSectionSize.
var ErrBlobTooLarge = errors.New("cache blob body too large")

// maxSectionSize caps the compressed body so a corrupt length never turns
// into a huge allocation.
const maxSectionSize = 1 << 31

// Meta describes the source file a blob was built from.
type Meta struct {
	SourcePath  string
	SourceSize  int64
	ModTime     int64
	Inode       uint64
	Fingerprint string
}

// Codec writes and reads the binary blob layout:
//
//	magic | meta | uint32 body length | zstd(body)
//
// The body is a depth-first dump of the group tree.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Codec{encoder: enc, decoder: dec}, nil
}

func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// Encode writes meta and g to w.
func (c *Codec) Encode(w io.Writer, meta Meta, g *model.Group) error {
	if _, err := w.Write(MagicHeader); err != nil {
		return err
	}

	head := new(bytes.Buffer)
	writeString(head, meta.SourcePath)
	binary.Write(head, binary.LittleEndian, meta.SourceSize)
	binary.Write(head, binary.LittleEndian, meta.ModTime)
	binary.Write(head, binary.LittleEndian, meta.Inode)
	writeString(head, meta.Fingerprint)
	if _, err := w.Write(head.Bytes()); err != nil {
		return err
	}

	body := new(bytes.Buffer)
	writeGroup(body, g)
	compressed := c.encoder.EncodeAll(body.Bytes(), make([]byte, 0, body.Len()/2))

	if err := checkBodySize(len(compressed)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(compressed))); err != nil {
		return err
	}
	_, err := w.Write(compressed)
	return err
}

func checkBodySize(n int) error {
	if uint64(n) > maxSectionSize {
		return fmt.Errorf("%w: %d bytes", ErrBlobTooLarge, n)
	}
	return nil
}

// Decode reads a blob written by Encode.
func (c *Codec) Decode(r io.Reader) (Meta, *model.Group, error) {
	br := bufio.NewReader(r)
	meta, err := readMeta(br)
	if err != nil {
		return Meta{}, nil, err
	}

	var size uint32
	if err := binary.Read(br, binary.LittleEndian, &size); err != nil {
		return Meta{}, nil, fmt.Errorf("read body size: %w", err)
	}
	if uint64(size) > maxSectionSize {
		return Meta{}, nil, fmt.Errorf("body size %d exceeds limit", size)
	}
	compressed := make([]byte, size)
	if _, err := io.ReadFull(br, compressed); err != nil {
		return Meta{}, nil, fmt.Errorf("read body: %w", err)
	}

	raw, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("decompress body: %w", err)
	}

	g, err := readGroup(bytes.NewReader(raw))
	if err != nil {
		return Meta{}, nil, fmt.Errorf("decode body: %w", err)
	}
	return meta, g, nil
}

// DecodeMeta reads only the header of a blob.
func (c *Codec) DecodeMeta(r io.Reader) (Meta, error) {
	return readMeta(bufio.NewReader(r))
}

func readMeta(r io.Reader) (Meta, error) {
	header := make([]byte, len(MagicHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if !bytes.Equal(header, MagicHeader) {
		return Meta{}, ErrInvalidHeader
	}

	var meta Meta
	var err error
	if meta.SourcePath, err = readString(r); err != nil {
		return Meta{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &meta.SourceSize); err != nil {
		return Meta{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &meta.ModTime); err != nil {
		return Meta{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &meta.Inode); err != nil {
		return Meta{}, err
	}
	if meta.Fingerprint, err = readString(r); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// Writes go to a bytes.Buffer, which never fails.

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func writeGroup(buf *bytes.Buffer, g *model.Group) {
	keys := g.Keys()
	binary.Write(buf, binary.LittleEndian, uint32(len(keys)))
	for _, name := range keys {
		n, _ := g.Get(name)
		writeString(buf, name)
		buf.WriteByte(byte(n.Kind))
		if n.Kind == model.NodeGroup {
			writeGroup(buf, n.Group)
			continue
		}
		writeValues(buf, n.Field.Values)
	}
}

func writeValues(buf *bytes.Buffer, values []model.Value) {
	binary.Write(buf, binary.LittleEndian, uint32(len(values)))
	for _, v := range values {
		writeValue(buf, v)
	}
}

func writeValue(buf *bytes.Buffer, v model.Value) {
	buf.WriteByte(byte(v.Kind))
	switch v.Kind {
	case model.KindInt:
		binary.Write(buf, binary.LittleEndian, v.Int)
	case model.KindFloat:
		binary.Write(buf, binary.LittleEndian, math.Float64bits(v.Float))
	case model.KindBool:
		if v.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case model.KindVector:
		binary.Write(buf, binary.LittleEndian, uint32(len(v.Axes)))
		for _, axis := range v.Axes {
			writeString(buf, axis)
		}
		writeValues(buf, v.Elems)
	case model.KindList:
		writeValues(buf, v.Elems)
	default:
		writeString(buf, v.Str)
	}
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

func readCount(r io.Reader) (int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readCount(r)
	if err != nil {
		return "", err
	}
	if uint64(n) > maxSectionSize {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readGroup(r byteReader) (*model.Group, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}

	g := model.NewGroup()
	for i := 0; i < n; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		switch model.NodeKind(kind) {
		case model.NodeGroup:
			sub, err := readGroup(r)
			if err != nil {
				return nil, err
			}
			g.Put(name, model.Node{Kind: model.NodeGroup, Group: sub})
		case model.NodeField:
			values, err := readValues(r)
			if err != nil {
				return nil, err
			}
			g.Put(name, model.Node{Kind: model.NodeField, Field: &model.Field{Values: values}})
		default:
			return nil, fmt.Errorf("entry %q: unknown node kind %d", name, kind)
		}
	}
	return g, nil
}

// readValues returns nil for an empty run, matching freshly parsed fields.
func readValues(r byteReader) ([]model.Value, error) {
	n, err := readCount(r)
	if err != nil || n == 0 {
		return nil, err
	}

	values := make([]model.Value, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func readValue(r byteReader) (model.Value, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return model.Value{}, err
	}

	switch model.Kind(kind) {
	case model.KindInt:
		var i int64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return model.Value{}, err
		}
		return model.IntValue(i), nil
	case model.KindFloat:
		var bits uint64
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return model.Value{}, err
		}
		return model.FloatValue(math.Float64frombits(bits)), nil
	case model.KindBool:
		b, err := r.ReadByte()
		if err != nil {
			return model.Value{}, err
		}
		return model.BoolValue(b != 0), nil
	case model.KindVector:
		n, err := readCount(r)
		if err != nil {
			return model.Value{}, err
		}
		var axes []string
		for i := 0; i < n; i++ {
			axis, err := readString(r)
			if err != nil {
				return model.Value{}, err
			}
			axes = append(axes, axis)
		}
		elems, err := readValues(r)
		if err != nil {
			return model.Value{}, err
		}
		return model.VectorValue(axes, elems), nil
	case model.KindList:
		elems, err := readValues(r)
		if err != nil {
			return model.Value{}, err
		}
		return model.ListValue(elems), nil
	case model.KindString:
		s, err := readString(r)
		if err != nil {
			return model.Value{}, err
		}
		return model.StringValue(s), nil
	default:
		return model.Value{}, fmt.Errorf("unknown value kind %d", kind)
	}
}
