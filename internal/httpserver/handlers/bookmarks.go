package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/enrich"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/mw"
)

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		bookmarks, err := d.Bookmarks.List(r.Context(), uid)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmarks)
	}
}

type searchHit struct {
	domain.Bookmark
	Score float64 `json:"score"`
}

// SearchBookmarks ranks the caller's bookmarks against ?q=, best first.
func SearchBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, r, d.Logger, domain.Invalid(domain.FieldError{
					Field: "limit", Value: raw, Message: "The limit field must be a positive integer.",
				}))
				return
			}
			limit = n
		}

		hits, err := d.Bookmarks.Search(r.Context(), uid, r.URL.Query().Get("q"), limit)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		out := make([]searchHit, len(hits))
		for i, h := range hits {
			out[i] = searchHit{Bookmark: h.Bookmark, Score: h.Score}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// AddBookmarks accepts a bookmark or an array of bookmarks and answers in
// the same shape.
func AddBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		inputs, isArray, err := decodeBookmarks(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		out, err := d.Bookmarks.Add(r.Context(), uid, inputs, extractFlags(r))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeBookmarks(w, out, isArray)
	}
}

func EditBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		inputs, isArray, err := decodeBookmarks(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		out, err := d.Bookmarks.Edit(r.Context(), uid, inputs, extractFlags(r))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeBookmarks(w, out, isArray)
	}
}

// DeleteBookmarks accepts an id, a {id} object or an array of either.
func DeleteBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		ids, err := decodeIDs(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if _, err := d.Bookmarks.Delete(r.Context(), uid, ids); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

type githubRequest struct {
	Username string `json:"username"`
}

func ImportGitHub(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		var req githubRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		out, err := d.Bookmarks.ImportGitHub(r.Context(), uid, req.Username, extractFlags(r))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// caller returns the authenticated user. Routes using it sit behind mw.Auth.
func caller(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	uid, ok := mw.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: mw.MsgMissingAuthorization})
	}
	return uid, ok
}

// extractFlags reads extract and extract[] from the query string.
func extractFlags(r *http.Request) enrich.Flags {
	q := r.URL.Query()
	return enrich.ParseFlags(append(append([]string{}, q["extract"]...), q["extract[]"]...))
}

// decodeBookmarks reads a single bookmark or an array of them.
func decodeBookmarks(w http.ResponseWriter, r *http.Request) ([]domain.BookmarkInput, bool, error) {
	data, err := readBody(w, r)
	if err != nil {
		return nil, false, err
	}

	switch firstByte(data) {
	case '[':
		var inputs []domain.BookmarkInput
		if err := unmarshal(data, &inputs); err != nil {
			return nil, true, err
		}
		return inputs, true, nil
	case '{':
		var in domain.BookmarkInput
		if err := unmarshal(data, &in); err != nil {
			return nil, false, err
		}
		return []domain.BookmarkInput{in}, false, nil
	default:
		return nil, false, domain.BadRequest(MsgMalformedJSON)
	}
}

// decodeIDs reads the ids of a delete request. Entries that are neither a
// string nor an object with an id are kept as raw text so that validation
// reports them at their index.
func decodeIDs(w http.ResponseWriter, r *http.Request) ([]string, error) {
	data, err := readBody(w, r)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	switch firstByte(data) {
	case '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, domain.BadRequest(MsgMalformedJSON)
		}
	case '{', '"':
		raws = []json.RawMessage{data}
	default:
		return nil, domain.BadRequest(MsgMalformedJSON)
	}

	ids := make([]string, len(raws))
	for i, raw := range raws {
		ids[i] = idOf(raw)
	}
	return ids, nil
}

func idOf(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.ID == nil {
			return ""
		}
		if err := json.Unmarshal(obj.ID, &s); err == nil {
			return s
		}
		return string(obj.ID)
	}
	return string(bytes.TrimSpace(raw))
}

func firstByte(data []byte) byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

func writeBookmarks(w http.ResponseWriter, out []domain.Bookmark, isArray bool) {
	if isArray || len(out) != 1 {
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeJSON(w, http.StatusOK, out[0])
}
