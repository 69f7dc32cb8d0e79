package types

import (
	"errors"
	"fmt"
)

var (
	ErrDecryption         = errors.New("credential decryption failed")
	ErrMissingCredentials = errors.New("no credentials supplied")

	ErrNoSuitableCredential   = errors.New("no suitable credential")
	ErrInsufficientCapability = errors.New("insufficient capability")

	ErrUpstreamFetch   = errors.New("upstream fetch failed")
	ErrCacheCorruption = errors.New("cache entry corrupt")

	ErrInvalidBackend = errors.New("invalid backend")
	ErrInvalidConfig  = errors.New("invalid config")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}
