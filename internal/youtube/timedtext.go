package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
)

// formattingTags matches inline caption markup (<i>, <b>, ...).
var formattingTags = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

type timedTextDoc struct {
	XMLName xml.Name    `xml:"transcript"`
	Texts   []timedText `xml:"text"`
}

type timedText struct {
	Start   float64 `xml:"start,attr"`
	Dur     float64 `xml:"dur,attr"`
	Content string  `xml:",innerxml"`
}

// fetchTimedText downloads a caption track and parses it into snippets.
// Inline markup is stripped unless preserveFormatting is set; HTML entities
// are always unescaped.
func (c *Client) fetchTimedText(ctx context.Context, httpClient *http.Client, trackURL string, preserveFormatting, proxied bool) ([]Snippet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err, proxied)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read transcript: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	var doc timedTextDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse transcript: %v", ErrUnavailable, err)
	}

	snippets := make([]Snippet, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		// One pass for the XML escaping, one more because YouTube
		// double-escapes entities inside caption text.
		text := html.UnescapeString(html.UnescapeString(t.Content))
		if !preserveFormatting {
			text = formattingTags.ReplaceAllString(text, "")
		}
		snippets = append(snippets, Snippet{
			Text:     text,
			Start:    t.Start,
			Duration: t.Dur,
		})
	}
	return snippets, nil
}
