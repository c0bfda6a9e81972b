package pipe

import (
	"errors"
	"fmt"
	"os"
)

// ErrHalfConfigured is returned when exactly one of --tx/--rx was supplied.
var ErrHalfConfigured = errors.New("tx and rx must both be provided")

// Endpoints are the child-side ends of the duplex channel, reconstructed
// from the descriptor numbers passed on the command line.
type Endpoints struct {
	TX *os.File // child → parent
	RX *os.File // parent → child
}

// Inherited validates and adopts the descriptors named by the --tx/--rx
// flags. A value of -1 means the flag was absent.
func Inherited(txFD, rxFD int) (*Endpoints, error) {
	if (txFD < 0) != (rxFD < 0) {
		return nil, ErrHalfConfigured
	}
	if txFD < 0 && rxFD < 0 {
		return nil, errors.New("no tx/rx descriptors supplied")
	}
	if txFD <= 2 || rxFD <= 2 {
		return nil, fmt.Errorf("descriptors %d/%d overlap the standard streams", txFD, rxFD)
	}

	return &Endpoints{
		TX: os.NewFile(uintptr(txFD), "pipe-tx"),
		RX: os.NewFile(uintptr(rxFD), "pipe-rx"),
	}, nil
}

// Close closes both endpoint files.
func (e *Endpoints) Close() {
	_ = e.TX.Close()
	_ = e.RX.Close()
}
