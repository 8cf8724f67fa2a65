// Package metadata resolves a playlist's display title and thumbnail from
// public oEmbed endpoints, used when the client supplies neither.
package metadata

import (
	"context"
	"strings"

	"dromeport/internal/pkg/httpclient"
)

const youtubeOEmbedURL = "https://www.youtube.com/oembed"

// Info is the resolved display metadata for a URL.
type Info struct {
	Title string
	Thumb string
}

type Client struct {
	http *httpclient.Client
}

func NewClient() *Client {
	return &Client{http: httpclient.New()}
}

// Lookup resolves title and thumbnail for url. URLs outside the known
// oEmbed providers, and lookup failures, return an empty Info and no error;
// metadata is decoration, never a reason to fail a request.
func (c *Client) Lookup(ctx context.Context, url string) Info {
	if !isYouTubeURL(url) {
		return Info{}
	}

	var body struct {
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	err := c.http.GetJSON(ctx, youtubeOEmbedURL, map[string]string{
		"url":    url,
		"format": "json",
	}, &body)
	if err != nil {
		return Info{}
	}
	return Info{Title: body.Title, Thumb: body.ThumbnailURL}
}

func isYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com/") || strings.Contains(url, "youtu.be/") ||
		strings.Contains(url, "music.youtube.com/")
}
