package enrich

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTitle(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"simple", "<html><head><title>Example Domain</title></head></html>", "Example Domain"},
		{"case insensitive", "<HTML><HEAD><TITLE>Upper</TITLE></HEAD>", "Upper"},
		{"attributes", `<title data-rh="true">With attrs</title>`, "With attrs"},
		{"entities and whitespace", "<title>\n  Fish &amp; Chips \t</title>", "Fish & Chips"},
		{"first title wins", "<title>One</title><svg><title>Two</title></svg>", "One"},
		{"no title", "<html><body>nothing</body></html>", ""},
		{"unclosed", "<title>never closed", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanTitle(strings.NewReader(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanTitleAcrossChunks(t *testing.T) {
	page := strings.Repeat("x", readChunk-3) + "<title>Split " + strings.Repeat("y", readChunk) + "</ti" + "tle>"
	got, err := scanTitle(&smallReads{r: strings.NewReader(page), size: 100})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Split y"))
}

func TestScanTitleTruncatesLongTitles(t *testing.T) {
	got, err := scanTitle(strings.NewReader("<title>" + strings.Repeat("a", 500) + "</title>"))
	require.NoError(t, err)
	assert.Len(t, got, 240)
}

// stopAfterTitle fails the test if the body is read past the closing tag.
type stopAfterTitle struct {
	data   []byte
	served bool
	t      *testing.T
}

func (s *stopAfterTitle) Read(p []byte) (int, error) {
	if s.served {
		s.t.Error("body read after the title was found")
		return 0, io.EOF
	}
	s.served = true
	return copy(p, s.data), nil
}

func TestScanTitleStopsEarly(t *testing.T) {
	body := &stopAfterTitle{data: []byte("<title>Early</title>"), t: t}
	got, err := scanTitle(body)
	require.NoError(t, err)
	assert.Equal(t, "Early", got)
}

type smallReads struct {
	r    io.Reader
	size int
}

func (s *smallReads) Read(p []byte) (int, error) {
	if len(p) > s.size {
		p = p[:s.size]
	}
	return s.r.Read(p)
}

func TestParseFlags(t *testing.T) {
	assert.Equal(t, Flags{}, ParseFlags(nil))
	assert.Equal(t, Flags{Title: true}, ParseFlags([]string{"title"}))
	assert.Equal(t, Flags{Title: true, Favicon: true}, ParseFlags([]string{"title", "favicon"}))
	assert.Equal(t, Flags{Title: true, Favicon: true}, ParseFlags([]string{"Favicon,title"}))
	assert.Equal(t, Flags{Favicon: true}, ParseFlags([]string{"favicon", "bogus"}))
}
