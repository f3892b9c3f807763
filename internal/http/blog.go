package http

import (
	"net/http"
	"strings"

	"github.com/newtuple/dialogtuple/internal/blog"
	"github.com/newtuple/dialogtuple/internal/commands"
)

type reloadResponse struct {
	Reloaded bool `json:"reloaded"`
	Posts    int  `json:"totalBlogs"`
}

func (api *API) registerBlogRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "blog")
	mux.HandleFunc("GET "+root+"/posts", api.handleBlogPosts)
	mux.HandleFunc("GET "+root+"/posts/{slug}", api.handleBlogPost)
	mux.HandleFunc("GET "+root+"/recent", api.handleBlogRecent)
	mux.HandleFunc("GET "+root+"/tags", api.handleBlogTags)
	mux.HandleFunc("GET "+root+"/stats", api.handleBlogStats)
	mux.HandleFunc("POST "+root+"/reload", api.handleBlogReload)
}

func (api *API) handleBlogPosts(w http.ResponseWriter, r *http.Request) {
	if api.blog == nil {
		serviceUnavailable(w)
		return
	}
	query := r.URL.Query()
	page := parseIntQuery(query.Get("page"), blog.DefaultPage)
	pageSize := parseIntQuery(query.Get("page_size"), blog.DefaultPageSize)
	tag := strings.TrimSpace(query.Get("tag"))
	term := strings.TrimSpace(query.Get("q"))

	posts, err := api.blog.Posts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if tag != "" {
		posts = blog.FilterByTag(posts, tag)
	}
	if term != "" {
		posts = blog.SearchPosts(posts, term)
	}
	writeJSON(w, http.StatusOK, blog.Paginate(posts, page, pageSize))
}

func (api *API) handleBlogPost(w http.ResponseWriter, r *http.Request) {
	if api.blog == nil {
		serviceUnavailable(w)
		return
	}
	post, err := api.blog.PostBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (api *API) handleBlogRecent(w http.ResponseWriter, r *http.Request) {
	if api.blog == nil {
		serviceUnavailable(w)
		return
	}
	count := parseIntQuery(r.URL.Query().Get("count"), blog.DefaultRecent)
	posts, err := api.blog.Recent(r.Context(), count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (api *API) handleBlogTags(w http.ResponseWriter, r *http.Request) {
	if api.blog == nil {
		serviceUnavailable(w)
		return
	}
	tags, err := api.blog.Tags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (api *API) handleBlogStats(w http.ResponseWriter, r *http.Request) {
	if api.blog == nil {
		serviceUnavailable(w)
		return
	}
	stats, err := api.blog.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (api *API) handleBlogReload(w http.ResponseWriter, r *http.Request) {
	if api.blog == nil {
		serviceUnavailable(w)
		return
	}
	var err error
	if api.reloader != nil {
		err = api.reloader.Execute(r.Context(), commands.ReloadBlogCommand{Reason: "http"})
	} else {
		_, err = api.blog.Reload(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	posts, err := api.blog.Posts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Reloaded: true, Posts: len(posts)})
}
