package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// stripJoin collects every visible text node under sel, trims each, drops
// empties, and joins the rest with sep. Script and style contents are not
// visible text.
func stripJoin(sel *goquery.Selection, sep string) string {
	return strings.Join(textParts(sel), sep)
}

// textStrings returns the stripped visible text nodes under sel, one entry
// per node.
func textStrings(sel *goquery.Selection) []string {
	return textParts(sel)
}

func textParts(sel *goquery.Selection) []string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return parts
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// joinURL leaves absolute hrefs alone and prefixes everything else with the
// base URL.
func joinURL(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}
