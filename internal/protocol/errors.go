package protocol

import "errors"

// ErrorKind is the closed set of failure tags that cross a pipe. The wire
// value is the tag name itself; no payload travels with it.
type ErrorKind string

const (
	ErrSerializationFailed       ErrorKind = "SerializationFailed"
	ErrSteamConnectionFailed     ErrorKind = "SteamConnectionFailed"
	ErrAppListRetrievalFailed    ErrorKind = "AppListRetrievalFailed"
	ErrSocketCommunicationFailed ErrorKind = "SocketCommunicationFailed"
	ErrAppMismatch               ErrorKind = "AppMismatchError"
	ErrUnknown                   ErrorKind = "UnknownError"
)

func (e ErrorKind) Error() string {
	switch e {
	case ErrSerializationFailed:
		return "serialization failed"
	case ErrSteamConnectionFailed:
		return "steam connection failed"
	case ErrAppListRetrievalFailed:
		return "app list retrieval failed"
	case ErrSocketCommunicationFailed:
		return "socket communication failed"
	case ErrAppMismatch:
		return "app mismatch"
	default:
		return "unknown error"
	}
}

func validKind(e ErrorKind) bool {
	switch e {
	case ErrSerializationFailed, ErrSteamConnectionFailed, ErrAppListRetrievalFailed,
		ErrSocketCommunicationFailed, ErrAppMismatch, ErrUnknown:
		return true
	}
	return false
}

// KindOf maps an arbitrary error to its wire tag. Errors that are not an
// ErrorKind collapse to UnknownError.
func KindOf(err error) ErrorKind {
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	return ErrUnknown
}
