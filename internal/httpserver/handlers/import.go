package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkpack/internal/bookmark"
	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
)

const (
	MsgFileTooBig = "The uploaded file is too big for being processed."

	// multipartSlack leaves room for boundaries and part headers around the file.
	multipartSlack = 64 << 10
)

var (
	netscapeTypes = map[string]bool{"text/html": true}
	homepageTypes = map[string]bool{
		"application/yaml":         true,
		"application/x-yaml":       true,
		"text/yaml":                true,
		"text/x-yaml":              true,
		"text/plain":               true,
		"application/octet-stream": true,
	}
)

// ImportNetscape adds the links of an uploaded browser bookmark export.
func ImportNetscape(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		data, err := readUpload(w, r, d.ImportMaxBytes, netscapeTypes)
		if err != nil {
			d.Logger.Debug("import rejected", logger.Error(err))
			writeError(w, r, d.Logger, err)
			return
		}
		out, err := d.Bookmarks.ImportNetscape(r.Context(), uid, bytes.NewReader(data), extractFlags(r))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ImportHomepage adds the entries of an uploaded Homepage bookmarks.yaml or
// services.yaml.
func ImportHomepage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		data, err := readUpload(w, r, d.ImportMaxBytes, homepageTypes)
		if err != nil {
			d.Logger.Debug("import rejected", logger.Error(err))
			writeError(w, r, d.Logger, err)
			return
		}
		out, err := d.Bookmarks.ImportHomepage(r.Context(), uid, data, extractFlags(r))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// readUpload returns the first file of a multipart request. The declared
// size is checked before anything is read and the body is never buffered
// beyond the limit.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64, accepted map[string]bool) ([]byte, error) {
	if r.ContentLength > maxBytes+multipartSlack {
		return nil, domain.BadRequest(MsgFileTooBig)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, domain.BadRequest(bookmark.MsgWrongFile)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, domain.BadRequest(bookmark.MsgWrongFile)
		}
		if err != nil {
			return nil, uploadError(err)
		}
		if part.FileName() == "" {
			_ = part.Close()
			continue
		}
		defer func(p *multipart.Part) { _ = p.Close() }(part)

		mediaType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil || !accepted[mediaType] {
			return nil, domain.BadRequest(bookmark.MsgWrongFile)
		}

		data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
		if err != nil {
			return nil, uploadError(err)
		}
		if int64(len(data)) > maxBytes {
			return nil, domain.BadRequest(MsgFileTooBig)
		}
		return data, nil
	}
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.BadRequest(MsgFileTooBig)
	}
	return domain.BadRequest(bookmark.MsgWrongFile)
}
