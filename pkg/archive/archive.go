// Package archive turns a compressed MediaWiki XML export stream into the
// in-memory article graph. The stream is decompressed and parsed on the fly;
// no more than one record is buffered at a time.
package archive

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

// OpenReader wraps r with the decompressor matching the file name suffix.
// Unrecognized suffixes are read as plain XML.
func OpenReader(r io.Reader, name string) (io.Reader, error) {
	buffered := bufio.NewReader(r)
	switch {
	case strings.HasSuffix(name, ".bz2"):
		return bzip2.NewReader(buffered), nil
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, nil
	default:
		return buffered, nil
	}
}
