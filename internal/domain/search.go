package domain

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"unicode"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0
	ScoreTagMatch       = 60.0

	// Position bonus (earlier is better)
	ScorePositionBonus = 10.0

	// Whole name equals the query
	ScoreExactNameBonus = 200.0

	// minFuzzyLength is the shortest word matched by character similarity.
	minFuzzyLength = 3
)

// SearchHit is a bookmark matching a query with its score.
type SearchHit struct {
	Bookmark Bookmark
	Score    float64
}

// ScoreBookmark scores a bookmark against a query. Every word of the query
// must match the name, a label of the host or a tag, otherwise the score is 0.
func ScoreBookmark(query string, b *Bookmark) float64 {
	words := strings.Fields(strings.ToLower(query))
	if b == nil || len(words) == 0 {
		return 0.0
	}

	nameWords := strings.Fields(strings.ToLower(b.Name))
	hostFragments := HostnameFragments(hostOf(b.URL))

	var totalScore float64
	for _, w := range words {
		best := 0.0
		for i, nw := range nameWords {
			best = math.Max(best, scoreFragment(w, nw, i))
		}
		for i, hf := range hostFragments {
			best = math.Max(best, scoreFragment(w, hf, i))
		}
		for _, tag := range b.Tags {
			if normalizeFragment(tag) == normalizeFragment(w) {
				best = math.Max(best, ScoreTagMatch)
			}
		}
		if best == 0.0 {
			return 0.0
		}
		totalScore += best
	}

	if strings.EqualFold(strings.Join(words, " "), strings.Join(nameWords, " ")) {
		totalScore += ScoreExactNameBonus
	}
	return totalScore
}

// RankBookmarks returns the bookmarks matching query, best first. Equal
// scores keep the collection order.
func RankBookmarks(query string, bookmarks []Bookmark) []SearchHit {
	hits := make([]SearchHit, 0, len(bookmarks))
	for i := range bookmarks {
		score := ScoreBookmark(query, &bookmarks[i])

		// Skip bookmarks with zero score (no match)
		if score == 0.0 {
			continue
		}
		hits = append(hits, SearchHit{Bookmark: bookmarks[i], Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// HostnameFragments splits a host into its labels, without "www" and the
// top-level domain: "docs.docker.com" gives [docs docker].
func HostnameFragments(hostname string) []string {
	hostname = strings.TrimPrefix(strings.ToLower(hostname), "www.")
	if hostname == "" {
		return nil
	}
	parts := strings.Split(hostname, ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// scoreFragment scores a single query word against a word of the bookmark
func scoreFragment(queryFrag, frag string, position int) float64 {
	queryFrag = normalizeFragment(queryFrag)
	frag = normalizeFragment(frag)

	if queryFrag == "" || frag == "" {
		return 0.0
	}

	// Exact match
	if queryFrag == frag {
		return ScoreExactMatch + calculatePositionBonus(position)
	}

	// Prefix match
	if strings.HasPrefix(frag, queryFrag) {
		return ScorePrefixMatch + calculatePositionBonus(position)
	}

	// Substring match
	if index := strings.Index(frag, queryFrag); index >= 0 {
		// Earlier substring matches get higher score
		substringBonus := ScorePositionBonus * (1.0 - float64(index)/float64(len(frag)))
		return ScoreSubstringMatch + substringBonus
	}

	if len(queryFrag) < minFuzzyLength {
		return 0.0
	}
	similarity := calculateSimilarity(queryFrag, frag)
	if similarity > 0.5 {
		return ScoreFuzzyMatch * similarity
	}

	return 0.0
}

// calculatePositionBonus gives bonus for earlier positions
func calculatePositionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// calculateSimilarity is the ratio of characters of s1 found in s2.
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}

	matches, total := 0, 0
	for _, c := range s1 {
		total++
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}

	return float64(matches) / float64(total)
}

// normalizeFragment keeps lowercased letters and digits
func normalizeFragment(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
