package pages

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pagemill/cms-backend/internal/utils"
)

var (
	ErrPageNotFound = errors.New("page not found")
	ErrNotAllowed   = errors.New("principal may not modify this page")
)

// Store is the page store contract. Mutations receive the resolved Principal
// and enforce the ownership rule themselves: client-side filtering of edit
// and delete buttons is never a substitute.
type Store interface {
	List(ctx context.Context, principal *utils.Principal, search string) ([]Page, error)
	Get(ctx context.Context, id string, principal *utils.Principal) (*Page, error)
	Create(ctx context.Context, page *Page) error
	Update(ctx context.Context, page *Page, principal utils.Principal) error
	Delete(ctx context.Context, id string, principal utils.Principal) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) base(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("app_cms.pages").
		Select("app_cms.pages.*, app_auth.users.name AS author_name").
		Joins("LEFT JOIN app_auth.users ON app_auth.users.user_id = app_cms.pages.author")
}

// List returns every page for authenticated principals and only published
// ones for guests, newest publication first. A search term matches the title
// as a substring or any tag exactly.
func (s *GormStore) List(ctx context.Context, principal *utils.Principal, search string) ([]Page, error) {
	q := s.base(ctx)
	if principal == nil {
		q = q.Where("publication_date IS NOT NULL AND publication_date <= ?", time.Now())
	}
	if search != "" {
		q = q.Where("title ILIKE ? OR ? = ANY(tags)", "%"+search+"%", search)
	}
	var result []Page
	if err := q.Order("publication_date DESC NULLS LAST, creation_date DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) Get(ctx context.Context, id string, principal *utils.Principal) (*Page, error) {
	var page Page
	err := s.base(ctx).Where("app_cms.pages.page_id = ?", id).First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	// Drafts and scheduled pages are invisible to guests.
	if principal == nil && !page.PublishedAt(time.Now()) {
		return nil, ErrPageNotFound
	}
	return &page, nil
}

func (s *GormStore) Create(ctx context.Context, page *Page) error {
	return s.db.WithContext(ctx).Create(page).Error
}

// Update carries the ownership rule in the WHERE clause: non-admins can only
// touch rows they authored. Zero affected rows on an existing page therefore
// means the principal was not allowed.
func (s *GormStore) Update(ctx context.Context, page *Page, principal utils.Principal) error {
	q := s.db.WithContext(ctx).Model(&Page{}).Where("page_id = ?", page.PageID)
	if !principal.IsAdmin {
		q = q.Where("author = ?", principal.ID)
	}
	res := q.Updates(map[string]any{
		"title":            page.Title,
		"author":           page.Author,
		"tags":             page.Tags,
		"publication_date": page.PublicationDate,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrForbidden(ctx, page.PageID)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string, principal utils.Principal) error {
	q := s.db.WithContext(ctx).Where("page_id = ?", id)
	if !principal.IsAdmin {
		q = q.Where("author = ?", principal.ID)
	}
	res := q.Delete(&Page{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrForbidden(ctx, id)
	}
	return nil
}

func (s *GormStore) missingOrForbidden(ctx context.Context, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Page{}).Where("page_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrPageNotFound
	}
	return ErrNotAllowed
}
