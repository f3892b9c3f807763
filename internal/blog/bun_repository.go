package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var errNoDatabase = errors.New("blog: bun repository requires a database")

// postNamespace seeds the stable row ids derived from slugs.
var postNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://dialogtuple.com/blog"))

// BunRepository persists the post snapshot in a relational database. Reads
// go through go-repository-bun; the snapshot swap is one raw transaction.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*postModel]
}

var _ Repository = (*BunRepository)(nil)

// NewBunRepository constructs a Bun-backed repository. Call Migrate before use.
func NewBunRepository(db *bun.DB) *BunRepository {
	if db == nil {
		return &BunRepository{}
	}
	return &BunRepository{db: db, repo: newPostRepository(db)}
}

func newPostRepository(db *bun.DB) repository.Repository[*postModel] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*postModel]{
		NewRecord: func() *postModel { return &postModel{} },
		GetID: func(m *postModel) uuid.UUID {
			return m.ID
		},
		SetID: func(m *postModel, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(m *postModel) string {
			return m.Slug
		},
	})
}

// Migrate creates the posts table when missing.
func (r *BunRepository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return errNoDatabase
	}
	_, err := r.db.NewCreateTable().Model((*postModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// ReplaceAll swaps the stored snapshot for posts in one transaction.
func (r *BunRepository) ReplaceAll(ctx context.Context, posts []*Post) error {
	if r.db == nil {
		return errNoDatabase
	}
	now := time.Now().UTC()
	models := make([]*postModel, 0, len(posts))
	for i, post := range posts {
		if post == nil {
			continue
		}
		models = append(models, modelFromPost(post, i, now))
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*postModel)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("delete blog posts: %w", err)
		}
		if len(models) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("insert blog posts: %w", err)
		}
		return nil
	})
}

// List returns the stored posts in snapshot order.
func (r *BunRepository) List(ctx context.Context) ([]*Post, error) {
	if r.repo == nil {
		return nil, errNoDatabase
	}
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.position ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("blog repository: %w", err)
	}
	out := make([]*Post, 0, len(records))
	for _, record := range records {
		out = append(out, modelToPost(record))
	}
	return out, nil
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	if r.repo == nil {
		return nil, errNoDatabase
	}
	record, err := r.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
		}
		return nil, fmt.Errorf("blog repository: %w", err)
	}
	return modelToPost(record), nil
}

type postModel struct {
	bun.BaseModel `bun:"table:blog_posts"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Slug          string    `bun:"slug,notnull,unique"`
	Position      int       `bun:"position,notnull"`
	Title         string    `bun:"title,notnull"`
	Date          string    `bun:"date"`
	Author        string    `bun:"author"`
	AuthorPicture string    `bun:"author_picture"`
	Description   string    `bun:"description"`
	Tags          []string  `bun:"tags,type:jsonb"`
	Image         string    `bun:"image"`
	Content       string    `bun:"content"`
	Excerpt       string    `bun:"excerpt"`
	Source        string    `bun:"source"`
	Warnings      []string  `bun:"warnings,type:jsonb,nullzero"`
	StoredAt      time.Time `bun:"stored_at"`
}

func modelFromPost(post *Post, position int, storedAt time.Time) *postModel {
	cloned := clonePost(post)
	return &postModel{
		ID:            uuid.NewSHA1(postNamespace, []byte(cloned.Slug)),
		Slug:          cloned.Slug,
		Position:      position,
		Title:         cloned.Title,
		Date:          cloned.Date,
		Author:        cloned.Author,
		AuthorPicture: cloned.AuthorPicture,
		Description:   cloned.Description,
		Tags:          cloned.Tags,
		Image:         cloned.Image,
		Content:       cloned.Content,
		Excerpt:       cloned.Excerpt,
		Source:        cloned.Source,
		Warnings:      cloned.Warnings,
		StoredAt:      storedAt,
	}
}

func modelToPost(model *postModel) *Post {
	tags := model.Tags
	if tags == nil {
		tags = []string{}
	}
	return clonePost(&Post{
		Slug:          model.Slug,
		Title:         model.Title,
		Date:          model.Date,
		Author:        model.Author,
		AuthorPicture: model.AuthorPicture,
		Description:   model.Description,
		Tags:          tags,
		Image:         model.Image,
		Content:       model.Content,
		Excerpt:       model.Excerpt,
		Source:        model.Source,
		Warnings:      model.Warnings,
	})
}
