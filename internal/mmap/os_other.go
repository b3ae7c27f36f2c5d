//go:build !unix && !windows

package mmap

import "errors"

func osMapAnon(int) ([]byte, func([]byte) error, error) {
	return nil, nil, errors.New("mmap: anonymous mappings not supported on this platform")
}
