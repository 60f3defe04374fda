// Package content converts message bodies between the two platforms.
package content

import (
	"regexp"
)

var (
	tagPattern = regexp.MustCompile(`<\s*/?\s*[a-zA-Z0-9]+.*?>`)
	// Only src as the first attribute is recognised; the messaging platform
	// renders inline images exactly this way. Only the tag name ignores case.
	imagePattern = regexp.MustCompile(`<\s*(?i:img)\s+src="(http.+?)"\s*>`)
)

// StripMarkup removes every tag-like substring. Entities are left encoded and
// surrounding whitespace is preserved; callers trim.
func StripMarkup(html string) string {
	return tagPattern.ReplaceAllString(html, "")
}

// ExtractImageURLs returns the src of every inline <img> in document order.
func ExtractImageURLs(html string) []string {
	matches := imagePattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return nil
	}
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls
}

// ImageMarkdown renders an uploaded image as a markdown link the messaging
// platform displays inline.
func ImageMarkdown(url string) string {
	return "[图片](" + url + ")"
}
