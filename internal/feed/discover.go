// Package feed はRSS/Atomフィードからタスクを取り込む機能を提供する。
package feed

import (
	"bytes"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// feedLink はHTMLのheadから検出したフィードへのリンク。
type feedLink struct {
	URL  string
	Atom bool
}

var feedMediaTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
	"application/feed+json",
}

var xmlMediaTypes = []string{
	"text/xml",
	"application/xml",
}

// mediaTypeOf はContent-Typeからパラメータを除いた小文字のメディアタイプを返す。
func mediaTypeOf(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	return strings.ToLower(mt)
}

// isFeedResponse はレスポンスがフィード本体かどうかを判定する。
// 汎用XMLの場合はボディ先頭のルート要素で判断する。
func isFeedResponse(contentType string, body []byte) bool {
	mt := mediaTypeOf(contentType)
	for _, f := range feedMediaTypes {
		if mt == f {
			return true
		}
	}

	generic := mt == ""
	for _, x := range xmlMediaTypes {
		if mt == x {
			generic = true
			break
		}
	}
	if !generic || len(body) == 0 {
		return false
	}
	return looksLikeFeedXML(body)
}

// looksLikeFeedXML は先頭4KBにRSS/RDF/Atomのルート要素があるかを調べる。
func looksLikeFeedXML(body []byte) bool {
	n := len(body)
	if n > 4096 {
		n = 4096
	}
	head := strings.ToLower(string(body[:n]))

	switch {
	case strings.Contains(head, "<rss"), strings.Contains(head, "<rdf:rdf"):
		return true
	case strings.Contains(head, "<feed") && strings.Contains(head, "http://www.w3.org/2005/atom"):
		return true
	}
	return false
}

// isHTMLResponse はレスポンスがHTMLかどうかを判定する。
func isHTMLResponse(contentType string) bool {
	return strings.Contains(mediaTypeOf(contentType), "html")
}

// findFeedLinks はHTMLのheadにある<link rel="alternate">からフィードURLを集める。
// 相対URLはpageURLを基準に解決する。
func findFeedLinks(body []byte, pageURL *url.URL) []feedLink {
	var links []feedLink

	z := html.NewTokenizer(bytes.NewReader(body))
	inHead := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return links

		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "head" {
				return links
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "head":
				inHead = true
				continue
			case "body":
				return links
			case "link":
			default:
				continue
			}
			if !inHead || !hasAttr {
				continue
			}

			attrs := map[string]string{}
			for more := true; more; {
				var k, v []byte
				k, v, more = z.TagAttr()
				attrs[strings.ToLower(string(k))] = string(v)
			}

			if !hasToken(attrs["rel"], "alternate") || attrs["href"] == "" {
				continue
			}
			typ := strings.ToLower(strings.TrimSpace(attrs["type"]))
			if typ != "application/rss+xml" && typ != "application/atom+xml" {
				continue
			}

			ref, err := url.Parse(strings.TrimSpace(attrs["href"]))
			if err != nil {
				continue
			}
			links = append(links, feedLink{
				URL:  pageURL.ResolveReference(ref).String(),
				Atom: typ == "application/atom+xml",
			})
		}
	}
}

// hasToken はrel属性のようなスペース区切りの値にtokenが含まれるかを返す。
func hasToken(value, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(value)) {
		if f == token {
			return true
		}
	}
	return false
}

// pickFeedLink は候補から1件を選ぶ。
// 同一ホストを優先し、次にAtomを優先する。同点の場合は先に現れたもの。
func pickFeedLink(links []feedLink, pageURL *url.URL) (feedLink, bool) {
	if len(links) == 0 {
		return feedLink{}, false
	}

	host := strings.ToLower(pageURL.Hostname())
	best, bestScore := 0, -1
	for i, l := range links {
		score := 0
		if u, err := url.Parse(l.URL); err == nil && strings.ToLower(u.Hostname()) == host {
			score += 2
		}
		if l.Atom {
			score++
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return links[best], true
}
