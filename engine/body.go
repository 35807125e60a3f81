package engine

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// readBody decodes the Content-Encoding of resp, reads at most maxBytes of
// the decoded stream and converts it to UTF-8. Oversized bodies are
// truncated rather than rejected: the head of the document is what matters.
func readBody(resp *http.Response, maxBytes int64) (string, error) {
	reader, closeFn, err := decodeContent(resp)
	if err != nil {
		return "", err
	}
	defer closeFn()

	raw, err := io.ReadAll(io.LimitReader(reader, maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset label: keep the bytes as they are.
		return string(raw), nil
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return string(raw), nil
	}
	return string(decoded), nil
}

func decodeContent(resp *http.Response) (io.Reader, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, noop, fmt.Errorf("gzip decode: %w", err)
		}
		return gz, func() { _ = gz.Close() }, nil
	case "br":
		return brotli.NewReader(resp.Body), noop, nil
	case "deflate":
		// Most servers send zlib-wrapped data, a few send raw deflate.
		br := bufio.NewReader(resp.Body)
		if head, err := br.Peek(1); err == nil && head[0]&0x0f == 0x08 {
			if zr, err := zlib.NewReader(br); err == nil {
				return zr, func() { _ = zr.Close() }, nil
			}
		}
		fl := flate.NewReader(br)
		return fl, func() { _ = fl.Close() }, nil
	default:
		return resp.Body, noop, nil
	}
}
