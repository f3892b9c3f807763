package blog

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/newtuple/dialogtuple/internal/markdown"
)

// SortByDate orders posts newest first in place and returns them. Posts with
// unparseable dates keep their relative order after all dated posts.
func SortByDate(posts []*Post) []*Post {
	keys := make(map[*Post]time.Time, len(posts))
	for _, p := range posts {
		if parsed, ok := markdown.ParseDate(p.Date); ok {
			keys[p] = parsed
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		a, aok := keys[posts[i]]
		b, bok := keys[posts[j]]
		switch {
		case aok && bok:
			return a.After(b)
		case aok != bok:
			return aok
		default:
			return false
		}
	})
	return posts
}

// FilterByTag keeps posts carrying tag, compared case-insensitively.
func FilterByTag(posts []*Post, tag string) []*Post {
	out := []*Post{}
	for _, p := range posts {
		for _, t := range p.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// SearchPosts keeps posts whose title, description, content or any tag
// contains term, ignoring case. An empty term matches everything.
func SearchPosts(posts []*Post, term string) []*Post {
	needle := strings.ToLower(term)
	out := []*Post{}
	for _, p := range posts {
		if matches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p *Post, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// AllTags returns the distinct tags across posts, sorted.
func AllTags(posts []*Post) []string {
	seen := map[string]struct{}{}
	tags := []string{}
	for _, p := range posts {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

// Paginate slices posts into page (1-based) of pageSize. Pages past the end
// are empty.
func Paginate(posts []*Post, page, pageSize int) *Page {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(posts)
	start := (page - 1) * pageSize
	window := []*Post{}
	if start < total {
		window = posts[start:min(start+pageSize, total)]
	}
	return &Page{
		Posts:       window,
		TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
		CurrentPage: page,
		TotalPosts:  total,
	}
}

// CollectStats summarises posts. DateRange compares the raw date strings.
func CollectStats(posts []*Post) *Stats {
	if len(posts) == 0 {
		return &Stats{Authors: []string{}}
	}

	authors := []string{}
	seen := map[string]struct{}{}
	dates := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.Author]; !ok {
			seen[p.Author] = struct{}{}
			authors = append(authors, p.Author)
		}
		dates = append(dates, p.Date)
	}
	sort.Strings(dates)

	return &Stats{
		TotalPosts: len(posts),
		TotalTags:  len(AllTags(posts)),
		Authors:    authors,
		DateRange: &DateRange{
			Oldest: dates[0],
			Newest: dates[len(dates)-1],
		},
	}
}
