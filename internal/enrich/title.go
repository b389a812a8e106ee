package enrich

import (
	"errors"
	"html"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
)

const (
	maxTitleScanBytes = 1 << 20
	readChunk         = 8 << 10
	closeTagMaxLen    = len("</title   >")
)

var (
	openTitleRe  = regexp.MustCompile(`(?i)<title(?:\s[^>]*)?>`)
	closeTitleRe = regexp.MustCompile(`(?i)</title\s*>`)
)

// scanTitle reads r until the first <title>...</title> pair and returns its
// text. It stops reading as soon as the closing tag shows up.
func scanTitle(r io.Reader) (string, error) {
	buf := make([]byte, 0, readChunk)
	chunk := make([]byte, readChunk)

	contentStart := -1
	openFrom, closeFrom := 0, 0

	for len(buf) < maxTitleScanBytes {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)

		if contentStart < 0 {
			if loc := openTitleRe.FindIndex(buf[openFrom:]); loc != nil {
				contentStart = openFrom + loc[1]
				closeFrom = contentStart
			} else if len(buf) > readChunk {
				// an opening tag cannot be longer than a chunk
				openFrom = len(buf) - readChunk
			}
		}

		if contentStart >= 0 {
			if loc := closeTitleRe.FindIndex(buf[closeFrom:]); loc != nil {
				return cleanTitle(string(buf[contentStart : closeFrom+loc[0]])), nil
			}
			if next := len(buf) - closeTagMaxLen; next > closeFrom {
				closeFrom = next
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", err
		}
	}
	return "", nil
}

// cleanTitle unescapes entities, collapses whitespace and keeps the result
// within the bookmark name limit.
func cleanTitle(raw string) string {
	t := strings.Join(strings.Fields(html.UnescapeString(raw)), " ")
	if utf8.RuneCountInString(t) > domain.MaxNameLength {
		t = string([]rune(t)[:domain.MaxNameLength])
	}
	return t
}
