package registry

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("registry is locked by another run")

// Lock takes an exclusive, non-blocking lock on path+".lock" for the duration
// of a collector run.
func Lock(path string) (unlock func() error, err error) {
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return fl.Unlock, nil
}
