package preview

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// imageSelectors are tried in order; the first non-empty content wins.
var imageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[property="og:image:secure_url"]`,
	`meta[name="twitter:image"]`,
	`meta[property="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// ExtractImage returns the page's Open Graph image, falling back to the
// Twitter card image, resolved against base. It returns "" when neither is
// declared or the document cannot be parsed.
func ExtractImage(html []byte, base *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	return extractImage(doc, base)
}

func extractImage(doc *goquery.Document, base *url.URL) string {
	for _, sel := range imageSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if c := strings.TrimSpace(s.AttrOr("content", "")); c != "" {
				found = c
				return false
			}
			return true
		})
		if found == "" {
			continue
		}
		if resolved := resolve(found, base); resolved != "" {
			return resolved
		}
	}
	return ""
}

// resolve makes ref absolute against base. Protocol-relative and relative
// references are supported; non-http results are rejected.
func resolve(ref string, base *url.URL) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
