// Package youtube retrieves transcript tracks for YouTube videos through the
// InnerTube player endpoint, optionally routed through an authenticated HTTP
// proxy.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the YouTube endpoint the InnerTube calls go to.
const DefaultBaseURL = "https://www.youtube.com"

var (
	// ErrNoTranscript means no transcript exists for the requested video and
	// language, and none could be produced by translation.
	ErrNoTranscript = errors.New("youtube: no transcript available")

	// ErrVideoUnavailable means the video itself cannot be accessed.
	ErrVideoUnavailable = errors.New("youtube: video unavailable")

	// ErrProxy means the configured proxy refused or broke the connection.
	ErrProxy = errors.New("youtube: proxy error")

	// ErrUnavailable covers other network failures and upstream errors.
	ErrUnavailable = errors.New("youtube: service unavailable")
)

// Snippet is one caption line with its position in the video.
type Snippet struct {
	Text     string
	Start    float64
	Duration float64
}

// Transcript is the raw adapter result handed to normalization.
type Transcript struct {
	Snippets    []Snippet
	Language    string // language actually delivered
	IsGenerated bool
	Translated  bool
	// SourceLanguage is the track's original language when Translated is set.
	SourceLanguage string
}

// FetchRequest describes one transcript retrieval.
type FetchRequest struct {
	VideoID            string
	Language           string
	Proxy              *ProxyConfig
	PreserveFormatting bool
}

type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 2 * time.Minute,
	}
}

// Fetch retrieves the transcript for the requested video and language.
// Track preference: a manually-authored track in the requested language, then
// an auto-generated one, then any translatable track translated into the
// requested language. Nothing else is silently substituted.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*Transcript, error) {
	httpClient := c.newHTTPClient(req.Proxy)
	proxied := req.Proxy != nil

	player, err := c.fetchPlayerResponse(ctx, httpClient, req.VideoID, proxied)
	if err != nil {
		return nil, err
	}

	tracks := player.Captions.Renderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w for video %s", ErrNoTranscript, req.VideoID)
	}

	lang := strings.ToLower(req.Language)

	if track, ok := findTrack(tracks, lang, false); ok {
		return c.fetchTrack(ctx, httpClient, track, track.LanguageCode, req.PreserveFormatting, proxied)
	}
	if track, ok := findTrack(tracks, lang, true); ok {
		return c.fetchTrack(ctx, httpClient, track, track.LanguageCode, req.PreserveFormatting, proxied)
	}

	// No native track: translate one if upstream offers the target language.
	if translatesTo(player.Captions.Renderer.TranslationLanguages, lang) {
		for _, track := range tracks {
			if !track.IsTranslatable {
				continue
			}
			log.Debug().
				Str("video_id", req.VideoID).
				Str("from", track.LanguageCode).
				Str("to", lang).
				Msg("translating transcript track")
			result, err := c.fetchTrack(ctx, httpClient,
				withTranslation(track, lang), lang, req.PreserveFormatting, proxied)
			if err != nil {
				return nil, err
			}
			result.Translated = true
			result.SourceLanguage = track.LanguageCode
			return result, nil
		}
	}

	return nil, fmt.Errorf("%w in language %q for video %s", ErrNoTranscript, req.Language, req.VideoID)
}

// fetchTrack downloads one caption track and wraps it as a Transcript.
func (c *Client) fetchTrack(ctx context.Context, httpClient *http.Client, track captionTrack, lang string, preserveFormatting, proxied bool) (*Transcript, error) {
	snippets, err := c.fetchTimedText(ctx, httpClient, track.BaseURL, preserveFormatting, proxied)
	if err != nil {
		return nil, err
	}
	return &Transcript{
		Snippets:    snippets,
		Language:    lang,
		IsGenerated: track.isGenerated(),
	}, nil
}

// findTrack returns the first track matching the language, filtered on
// generated vs manual. Region-qualified codes ("en-GB") match their base.
func findTrack(tracks []captionTrack, lang string, generated bool) (captionTrack, bool) {
	for _, track := range tracks {
		if track.isGenerated() != generated {
			continue
		}
		code := strings.ToLower(track.LanguageCode)
		if code == lang || strings.SplitN(code, "-", 2)[0] == lang {
			return track, true
		}
	}
	return captionTrack{}, false
}

func translatesTo(languages []translationLanguage, lang string) bool {
	for _, l := range languages {
		if strings.ToLower(l.LanguageCode) == lang {
			return true
		}
	}
	return false
}

func withTranslation(track captionTrack, lang string) captionTrack {
	sep := "?"
	if strings.Contains(track.BaseURL, "?") {
		sep = "&"
	}
	track.BaseURL += sep + "tlang=" + lang
	return track
}

// newHTTPClient builds the per-request client; all upstream calls for one
// request share the same proxy routing.
func (c *Client) newHTTPClient(proxy *ProxyConfig) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy.URL())
	}
	return &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusProxyAuthRequired:
		return fmt.Errorf("%w: proxy authentication required", ErrProxy)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w (status %d)", ErrVideoUnavailable, status)
	default:
		return fmt.Errorf("%w (status %d)", ErrUnavailable, status)
	}
}

// classifyTransport maps connection-level failures. A deadline or
// cancelation is the caller's timeout budget running out, and stays an
// upstream failure even through a proxy. Any other connection failure with a
// proxy configured is overwhelmingly the proxy's fault and is reported as
// one so callers can distinguish it from a missing transcript.
func classifyTransport(err error, proxied bool) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if proxied {
		return fmt.Errorf("%w: %v", ErrProxy, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
