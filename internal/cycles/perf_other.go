//go:build !linux

package cycles

import "fmt"

func openPerf() (Counter, error) {
	return nil, fmt.Errorf("%w: hardware cycle counter requires linux", ErrUnavailable)
}
