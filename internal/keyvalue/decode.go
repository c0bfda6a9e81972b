package keyvalue

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrUnsupportedType marks a tag the decoder recognizes but cannot parse.
// WideString values have a width the stream does not declare, so decoding
// fails rather than mis-reading the bytes that follow.
var ErrUnsupportedType = errors.New("unsupported key value type")

// stringChunk is the growth step for the null-terminated string reader.
const stringChunk = 128

// DecodeFile decodes a binary KeyValue tree from a file on disk.
func DecodeFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key value file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a binary KeyValue stream into a tree rooted at "<root>".
// The grammar is one tag byte, a null-terminated name, then a value whose
// shape the tag dictates; a container recurses until its own End tag.
func Decode(r io.Reader) (*Node, error) {
	root := NewRoot()
	if err := decodeChildren(r, root); err != nil {
		return nil, err
	}
	return root, nil
}

func decodeChildren(r io.Reader, parent *Node) error {
	for {
		var tag [1]byte
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			return fmt.Errorf("read tag: %w", err)
		}
		kind := Type(tag[0])
		if kind == typeEnd {
			return nil
		}
		if kind > typeEnd {
			return fmt.Errorf("invalid key value tag 0x%02x", tag[0])
		}

		name, err := readString(r)
		if err != nil {
			return err
		}
		child := &Node{Name: name, Children: map[string]*Node{}, Valid: true}

		switch kind {
		case TypeNone:
			if err := decodeChildren(r, child); err != nil {
				return err
			}
		case TypeString:
			value, err := readString(r)
			if err != nil {
				return err
			}
			child.Data = Data{Type: TypeString, Str: value}
		case TypeWideString:
			return fmt.Errorf("%w: wide string", ErrUnsupportedType)
		case TypeInt32:
			var buf [4]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return fmt.Errorf("read int32 value: %w", err)
			}
			child.Data = Data{Type: TypeInt32, I32: int32(binary.LittleEndian.Uint32(buf[:]))}
		case TypeFloat32:
			var buf [4]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return fmt.Errorf("read float32 value: %w", err)
			}
			child.Data = Data{Type: TypeFloat32, F32: math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))}
		case TypeUInt64:
			var buf [8]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return fmt.Errorf("read uint64 value: %w", err)
			}
			child.Data = Data{Type: TypeUInt64, U64: binary.LittleEndian.Uint64(buf[:])}
		case TypeColor, TypePointer:
			var buf [4]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return fmt.Errorf("read color value: %w", err)
			}
			child.Data = Data{Type: TypeColor, Color: binary.LittleEndian.Uint32(buf[:])}
		}

		// Last write wins among same-named siblings.
		parent.Children[child.Name] = child
	}
}

// readString scans for the null terminator, growing its buffer in fixed
// 128-byte chunks. A stream ending mid-string is an I/O error.
func readString(r io.Reader) (string, error) {
	buf := make([]byte, 0, stringChunk)
	var one [1]byte
	for {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("read string: %w", err)
		}
		if one[0] == 0 {
			return string(buf), nil
		}
		if len(buf) == cap(buf) {
			grown := make([]byte, len(buf), cap(buf)+stringChunk)
			copy(grown, buf)
			buf = grown
		}
		buf = append(buf, one[0])
	}
}
