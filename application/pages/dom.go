package pages

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"grocerycheck/domain/review"
)

// VisibleText extracts the human-readable text of an HTML fragment with
// scripts and styles removed and whitespace collapsed.
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// reviewBodySelectors are tried in order for the text of a comment.
var reviewBodySelectors = []string{".review-body", ".comment-body", ".comment-text", "p"}

// ParseReviews reads the product review list out of a page snapshot.
func ParseReviews(html string) ([]review.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var reviews []review.Review
	doc.Find("div.comment").Each(func(_ int, s *goquery.Selection) {
		header := s.Find(".comment-header")
		author := squash(header.Find("strong").First().Text())

		var body string
		for _, sel := range reviewBodySelectors {
			if t := squash(s.Find(sel).First().Text()); t != "" {
				body = t
				break
			}
		}
		if body == "" {
			clone := s.Clone()
			clone.Find(".comment-header, .menu-icon, .dropdown-menu").Remove()
			body = squash(clone.Text())
		}

		reviews = append(reviews, review.Review{
			Author: author,
			Stars:  s.Find(".star.filled, .star-filled, .star.full, .star.active").Length(),
			Text:   body,
		})
	})
	return reviews, nil
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// urlPath returns the path of raw, or raw itself when it does not parse.
func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
