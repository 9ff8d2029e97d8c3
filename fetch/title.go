package fetch

import (
	"bytes"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// unknownTitle is the sentinel used when no title can be extracted.
const unknownTitle = "Unknown"

// extractTitle pulls the page title out of the fetched body. It tries the
// <title> element first, then readability's heuristics (og:title, leading
// headings). Any parse failure or absence yields "Unknown"; this function
// never fails the scan.
func extractTitle(body []byte, pageURL string) string {
	if title := titleElement(body); title != "" {
		return title
	}
	if title := readabilityTitle(body, pageURL); title != "" {
		return title
	}
	return unknownTitle
}

// titleElement returns the text of the first <title> element, or "".
func titleElement(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title != "" {
				return
			}
			walk(c)
		}
	}
	walk(doc)

	return title
}

// readabilityTitle asks go-readability for a title when the document has
// no <title> element. Errors are swallowed; this is best-effort only.
func readabilityTitle(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(article.Title)
}
