package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// lengthSize is the width of the frame length prefix. Fixed at 8 bytes
// little-endian on every build so 32- and 64-bit processes share one wire
// format.
const lengthSize = 8

// maxFrameSize bounds a single payload. A peer announcing more than this is
// corrupt or hostile, not busy.
const maxFrameSize = 64 << 20

// Deadliner is implemented by endpoints that support read/write deadlines
// (os pipes do on Linux). Frame operations apply deadlines only when the
// endpoint offers them and the timeout is non-zero.
type Deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// RawFrame is one complete framed message: length prefix plus payload,
// exactly as read off a pipe. The orchestrator relays worker responses as
// RawFrames without ever decoding the payload.
type RawFrame []byte

// WriteTo writes the frame verbatim.
func (f RawFrame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f)
	return int64(n), err
}

// EncodeFrame wraps an encoded payload with its length prefix.
func EncodeFrame(payload []byte) RawFrame {
	frame := make([]byte, lengthSize+len(payload))
	binary.LittleEndian.PutUint64(frame, uint64(len(payload)))
	copy(frame[lengthSize:], payload)
	return frame
}

// EncodeResponse builds the raw frame for a response envelope. It cannot
// fail for any envelope this package constructs; an encode error falls back
// to the SerializationFailed frame.
func EncodeResponse[T any](r Response[T]) RawFrame {
	payload, err := json.Marshal(r)
	if err != nil {
		payload, _ = json.Marshal(Failure[bool](ErrSerializationFailed))
	}
	return EncodeFrame(payload)
}

// ReadFrame reads one length-prefixed payload. A short read at any point
// fails the whole frame; there is no partial-message recovery.
func ReadFrame(r io.Reader, timeout time.Duration) ([]byte, error) {
	applyReadDeadline(r, timeout)

	var prefix [lengthSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}

	length := binary.LittleEndian.Uint64(prefix[:])
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame length %d exceeds limit", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// ReadRawFrame reads one frame and returns it with its prefix intact, ready
// to be relayed unmodified.
func ReadRawFrame(r io.Reader, timeout time.Duration) (RawFrame, error) {
	payload, err := ReadFrame(r, timeout)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(payload), nil
}

// WriteFrame writes the prefix and payload as a single write.
func WriteFrame(w io.Writer, timeout time.Duration, payload []byte) error {
	applyWriteDeadline(w, timeout)
	if _, err := EncodeFrame(payload).WriteTo(w); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteCommand frames and writes one command.
func WriteCommand(w io.Writer, timeout time.Duration, cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	return WriteFrame(w, timeout, payload)
}

// ReadCommand reads and decodes one command frame.
func ReadCommand(r io.Reader, timeout time.Duration) (Command, error) {
	payload, err := ReadFrame(r, timeout)
	if err != nil {
		return Command{}, err
	}
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	return cmd, nil
}

// WriteResponse frames and writes one response envelope. An envelope that
// cannot be encoded (a NaN float payload, for instance) is never sent;
// the peer receives Error(SerializationFailed) in its place so the
// request/response cadence is preserved.
func WriteResponse[T any](w io.Writer, timeout time.Duration, resp Response[T]) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		payload, _ = json.Marshal(Failure[bool](ErrSerializationFailed))
	}
	return WriteFrame(w, timeout, payload)
}

// ReadResponse reads and decodes one response envelope.
func ReadResponse[T any](r io.Reader, timeout time.Duration) (Response[T], error) {
	payload, err := ReadFrame(r, timeout)
	if err != nil {
		return Response[T]{}, err
	}
	var resp Response[T]
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Response[T]{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func applyReadDeadline(r io.Reader, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	if d, ok := r.(Deadliner); ok {
		_ = d.SetReadDeadline(time.Now().Add(timeout))
	}
}

func applyWriteDeadline(w io.Writer, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	if d, ok := w.(Deadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(timeout))
	}
}
