package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-ethrelay/core/types"
)

// openInput opens path, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// decodeStream calls fn for each JSON value of type T in r.
func decodeStream[T any](r io.Reader, fn func(*T) error) error {
	dec := json.NewDecoder(r)
	for {
		v := new(T)
		if err := dec.Decode(v); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// readHeader loads the single header JSON at path, as returned by
// eth_getBlockByHash.
func readHeader(path string) (*types.Header, error) {
	var header *types.Header
	err := forEachHeader(path, func(h *types.Header) error {
		if header != nil {
			return errors.Errorf("%s holds more than one header", path)
		}
		header = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, errors.Errorf("%s holds no header", path)
	}
	return header, nil
}

func forEachHeader(path string, fn func(*types.Header) error) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()
	return errors.Wrapf(decodeStream(in, fn), "reading headers from %s", path)
}

func forEachProof(path string, fn func(*types.ReceiptProof) error) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()
	return errors.Wrapf(decodeStream(in, fn), "reading proofs from %s", path)
}
