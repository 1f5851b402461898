package fetcher

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"golang.org/x/crypto/sha3"
	"golang.org/x/net/html/charset"
)

// decodeBody reads at most limit decoded bytes from body.
//
// The Content-Encoding is undone first (gzip, deflate, br), then the result
// is transcoded to UTF-8 using the charset from contentType or from a <meta>
// tag sniffed from the body. Bodies longer than limit are truncated.
func decodeBody(body io.Reader, contentEncoding, contentType string, limit int64) ([]byte, error) {
	var reader io.Reader = body

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(body)
	case "deflate":
		rc, err := newDeflateReader(body)
		if err != nil {
			return nil, fmt.Errorf("deflate decode: %w", err)
		}
		defer rc.Close()
		reader = rc
	}

	raw, err := io.ReadAll(io.LimitReader(reader, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		// Unknown charset label; match against the raw bytes.
		return raw, nil //nolint:nilerr // Raw bytes are still useful for regex extraction
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return raw, nil //nolint:nilerr // Same as above
	}
	return decoded, nil
}

// newDeflateReader handles both zlib-wrapped deflate (what RFC 9110 means by
// "deflate") and raw deflate streams sent by some servers.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(h []byte) bool {
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}

// fingerprint returns the hex SHA3-256 digest of body.
func fingerprint(body []byte) string {
	sum := sha3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// isHTML reports whether contentType denotes an HTML document.
func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// extractTitle returns the trimmed text of the first <title> element.
func extractTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
