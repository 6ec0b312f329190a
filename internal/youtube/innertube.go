package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// The ANDROID client is used because it receives caption track listings
// without the web client's challenge handshakes.
const (
	innertubeClientName    = "ANDROID"
	innertubeClientVersion = "20.10.38"
	androidSDKVersion      = 30
)

type innertubeRequest struct {
	Context innertubeContext `json:"context"`
	VideoID string           `json:"videoId"`
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSDKVersion int    `json:"androidSdkVersion"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks        []captionTrack        `json:"captionTracks"`
			TranslationLanguages []translationLanguage `json:"translationLanguages"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL        string `json:"baseUrl"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"` // "asr" marks auto-generated tracks
	IsTranslatable bool   `json:"isTranslatable"`
}

type translationLanguage struct {
	LanguageCode string `json:"languageCode"`
}

func (t captionTrack) isGenerated() bool {
	return t.Kind == "asr"
}

// fetchPlayerResponse calls the InnerTube player endpoint, which carries the
// caption track listing for a video.
func (c *Client) fetchPlayerResponse(ctx context.Context, httpClient *http.Client, videoID string, proxied bool) (*playerResponse, error) {
	body, err := json.Marshal(innertubeRequest{
		Context: innertubeContext{
			Client: innertubeClient{
				ClientName:        innertubeClientName,
				ClientVersion:     innertubeClientVersion,
				AndroidSDKVersion: androidSDKVersion,
			},
		},
		VideoID: videoID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/youtubei/v1/player", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err, proxied)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read player response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	var player playerResponse
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, fmt.Errorf("%w: decode player response: %v", ErrUnavailable, err)
	}

	switch player.PlayabilityStatus.Status {
	case "OK", "":
	case "ERROR":
		return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, player.PlayabilityStatus.Reason)
	default:
		return nil, fmt.Errorf("%w: playability %s: %s",
			ErrNoTranscript, player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason)
	}

	return &player, nil
}
