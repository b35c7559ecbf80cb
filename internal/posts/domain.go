// Package posts manages marketplace posts: priced image uploads that other
// accounts browse, purchase, favorite, rate, and comment on.
package posts

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Post represents an uploaded image offered on the marketplace. PriceCents
// is non-negative; zero means free.
type Post struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	ImageURL    string    `json:"image_url"`
	AssetHandle string    `json:"-"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	DisplayPrice string `json:"display_price"`
}

// Comment is a remark left on a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating aggregates star ratings for a post.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a cent amount as a dollar string with separators,
// e.g. 1234567 -> "$12,345.67".
func FormatPrice(cents int64) string {
	if cents == 0 {
		return "Free"
	}
	return pricePrinter.Sprintf("$%d.%02d", cents/100, cents%100)
}

func (p *Post) fillDisplayPrice() {
	p.DisplayPrice = FormatPrice(p.PriceCents)
}
