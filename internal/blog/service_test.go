package blog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type stubSource struct {
	name  string
	posts []*Post
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Posts(context.Context) ([]*Post, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, clonePost(p))
	}
	return out, nil
}

func newStubService(t *testing.T, sources ...Source) Service {
	t.Helper()
	svc, err := NewService(sources)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewServiceRequiresSources(t *testing.T) {
	if _, err := NewService(nil); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestServiceMergesSortsAndDeduplicates(t *testing.T) {
	md := &stubSource{name: SourceMarkdown, posts: []*Post{
		{Slug: "shared", Title: "From Markdown", Date: "2024-01-01"},
		{Slug: "md-only", Title: "Markdown Only", Date: "2024-03-01"},
	}}
	docs := &stubSource{name: SourceDocument, posts: []*Post{
		{Slug: "shared", Title: "From Document", Date: "2025-01-01"},
		{Slug: "doc-only", Title: "Document Only", Date: "2024-02-01", Tags: []string{DocumentTag}},
	}}
	svc := newStubService(t, md, docs)

	posts, err := svc.Posts(context.Background())
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	got := slugs(posts)
	want := []string{"md-only", "doc-only", "shared"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	shared, err := svc.PostBySlug(context.Background(), "shared")
	if err != nil {
		t.Fatalf("PostBySlug: %v", err)
	}
	if shared.Title != "From Markdown" {
		t.Fatalf("expected earlier source to win, got %q", shared.Title)
	}
}

func TestServiceCachesUntilCleared(t *testing.T) {
	src := &stubSource{name: SourceMarkdown, posts: []*Post{{Slug: "a", Date: "2024-01-01"}}}
	svc := newStubService(t, src)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Posts(ctx); err != nil {
				t.Errorf("Posts: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := svc.Tags(ctx); err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if calls := src.calls.Load(); calls != 1 {
		t.Fatalf("expected one source read, got %d", calls)
	}

	src.posts = append(src.posts, &Post{Slug: "b", Date: "2024-02-01"})
	svc.ClearCache()
	posts, err := svc.Posts(ctx)
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 2 || src.calls.Load() != 2 {
		t.Fatalf("expected rebuild after ClearCache, got %d posts and %d calls", len(posts), src.calls.Load())
	}

	reloaded, err := svc.Reload(ctx)
	if err != nil || len(reloaded) != 2 || src.calls.Load() != 3 {
		t.Fatalf("expected Reload to rebuild, got %v (%d calls)", err, src.calls.Load())
	}
}

func TestServiceToleratesOneFailingSource(t *testing.T) {
	ok := &stubSource{name: SourceMarkdown, posts: []*Post{{Slug: "a", Date: "2024-01-01"}}}
	bad := &stubSource{name: SourceDocument, err: errors.New("bucket unreachable")}
	svc := newStubService(t, ok, bad)

	posts, err := svc.Posts(context.Background())
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected surviving source posts, got %d", len(posts))
	}
}

func TestServiceFallsBackToStoredSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	if err := repo.ReplaceAll(ctx, []*Post{{Slug: "kept", Title: "Kept", Date: "2023-01-01"}}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	bad := &stubSource{name: SourceMarkdown, err: errors.New("read failure")}
	svc, err := NewService([]Source{bad}, WithRepository(repo))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	posts, err := svc.Posts(ctx)
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "kept" {
		t.Fatalf("expected snapshot posts, got %v", slugs(posts))
	}

	// Snapshots are not cached, so sources are retried on the next call.
	if _, err := svc.Posts(ctx); err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if bad.calls.Load() != 2 {
		t.Fatalf("expected sources retried, got %d calls", bad.calls.Load())
	}
}

func TestServiceAllSourcesFailedWithoutSnapshot(t *testing.T) {
	cause := errors.New("read failure")
	svc := newStubService(t, &stubSource{name: SourceMarkdown, err: cause})

	_, err := svc.Posts(context.Background())
	if !errors.Is(err, ErrSourcesFailed) || !errors.Is(err, cause) {
		t.Fatalf("expected joined source failure, got %v", err)
	}
	if _, err := svc.PostBySlug(context.Background(), "x"); !errors.Is(err, ErrSourcesFailed) {
		t.Fatalf("expected source failure from PostBySlug, got %v", err)
	}
}

func TestServicePersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	src := &stubSource{name: SourceMarkdown, posts: []*Post{
		{Slug: "older", Date: "2023-01-01"},
		{Slug: "newer", Date: "2024-01-01"},
	}}
	svc, err := NewService([]Source{src}, WithRepository(repo))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.Posts(ctx); err != nil {
		t.Fatalf("Posts: %v", err)
	}
	stored, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := slugs(stored); len(got) != 2 || got[0] != "newer" {
		t.Fatalf("expected sorted snapshot, got %v", got)
	}
}

func TestServiceQueries(t *testing.T) {
	ctx := context.Background()
	svc := newStubService(t, &stubSource{name: SourceMarkdown, posts: samplePosts()})

	if _, err := svc.PostBySlug(ctx, "nope"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	page, err := svc.Paginated(ctx, 1, 2)
	if err != nil || page.TotalPages != 2 || len(page.Posts) != 2 || page.Posts[0].Slug != "new" {
		t.Fatalf("unexpected page %+v (%v)", page, err)
	}

	recent, err := svc.Recent(ctx, 3)
	if err != nil || len(recent) != 3 {
		t.Fatalf("unexpected recent %v (%v)", slugs(recent), err)
	}
	all, err := svc.Recent(ctx, 50)
	if err != nil || len(all) != 4 {
		t.Fatalf("expected recent capped to post count, got %d (%v)", len(all), err)
	}

	tagged, err := svc.ByTag(ctx, "launch")
	if err != nil || len(tagged) != 1 || tagged[0].Slug != "new" {
		t.Fatalf("unexpected tag filter %v (%v)", slugs(tagged), err)
	}

	found, err := svc.Search(ctx, "midway")
	if err != nil || len(found) != 1 || found[0].Slug != "mid" {
		t.Fatalf("unexpected search %v (%v)", slugs(found), err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil || stats.TotalPosts != 4 {
		t.Fatalf("unexpected stats %+v (%v)", stats, err)
	}
}
