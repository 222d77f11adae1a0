package site

// Setting is a single site-wide key/value pair.
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"not null" json:"value"`
}

func (Setting) TableName() string { return "app_site.settings" }

const (
	websiteNameKey     = "website_name"
	defaultWebsiteName = "My Website"
)
