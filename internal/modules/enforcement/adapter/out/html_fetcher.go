package out

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lockin/internal/modules/enforcement/domain"
	enforcementout "lockin/internal/modules/enforcement/port/out"
)

const maxPageBytes = 2 << 20

// HTMLFetcher downloads a page and extracts what a browser content script would
// see: title, meta and og descriptions, and visible text.
type HTMLFetcher struct {
	client *http.Client
}

var _ enforcementout.PageFetcher = (*HTMLFetcher)(nil)

func NewHTMLFetcher(client *http.Client) *HTMLFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTMLFetcher{client: client}
}

func (f *HTMLFetcher) Fetch(ctx context.Context, url string) (domain.PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.PageContent{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := f.client.Do(req)
	if err != nil {
		return domain.PageContent{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.PageContent{}, fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}
	return ExtractContent(io.LimitReader(resp.Body, maxPageBytes))
}

// ExtractContent parses an HTML document.
func ExtractContent(r io.Reader) (domain.PageContent, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return domain.PageContent{}, fmt.Errorf("parse html: %w", err)
	}
	var (
		content domain.PageContent
		text    strings.Builder
	)
	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			case atom.Title:
				if content.Title == "" {
					content.Title = strings.TrimSpace(nodeText(n))
				}
				return
			case atom.Meta:
				name := strings.ToLower(attr(n, "name"))
				property := strings.ToLower(attr(n, "property"))
				switch {
				case name == "description" && content.Description == "":
					content.Description = attr(n, "content")
				case property == "og:description" && content.OGDescription == "":
					content.OGDescription = attr(n, "content")
				}
			case atom.Body:
				inBody = true
			}
		}
		if n.Type == html.TextNode && inBody {
			if s := strings.TrimSpace(n.Data); s != "" {
				text.WriteString(s)
				text.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}
	walk(doc, false)
	content.Text = strings.TrimSpace(text.String())
	return content, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
