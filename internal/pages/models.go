package pages

import (
	"time"

	"github.com/lib/pq"
)

// Page is a CMS page. Block content is managed elsewhere; this module owns
// the page metadata and its authorization rules.
type Page struct {
	PageID          string         `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"not null" json:"title"`
	Author          string         `gorm:"not null;index" json:"author"`
	AuthorName      string         `gorm:"-" json:"authorName,omitempty"`
	Tags            pq.StringArray `gorm:"type:text[]" json:"tags"`
	CreationDate    time.Time      `gorm:"not null" json:"creationDate"`
	PublicationDate *time.Time     `json:"publicationDate,omitempty"`
}

func (Page) TableName() string { return "app_cms.pages" }

// PublishedAt reports whether the page is visible to guests at the given
// instant. A missing publication date means draft; a future one, scheduled.
func (p *Page) PublishedAt(now time.Time) bool {
	return p.PublicationDate != nil && !p.PublicationDate.After(now)
}
