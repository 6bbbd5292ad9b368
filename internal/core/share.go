package core

import (
	"fmt"
	"net/url"
	"strings"
)

// SharePayload is what a client needs to share a card or draw its QR code.
type SharePayload struct {
	CardLink   string `json:"cardLink"`
	URL        string `json:"url"`
	QRImageURL string `json:"qrImageUrl"`
	QRSize     int    `json:"qrSize"`
}

// ShareBuilder turns public links into share URLs. It performs no I/O.
type ShareBuilder struct {
	baseURL    string
	qrRenderer string
	qrSize     int
}

// NewShareBuilder returns a builder for cards served under publicBaseURL.
// qrRendererURL is an image service accepting size and data query parameters.
func NewShareBuilder(publicBaseURL, qrRendererURL string, qrSize int) *ShareBuilder {
	return &ShareBuilder{
		baseURL:    strings.TrimRight(publicBaseURL, "/"),
		qrRenderer: qrRendererURL,
		qrSize:     qrSize,
	}
}

// URL returns <base>/p/<link>. Each link segment is path escaped.
func (b *ShareBuilder) URL(link string) string {
	segments := strings.Split(NormalizeLink(link), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + "/p/" + strings.Join(segments, "/")
}

// QRImageURL returns the renderer URL that draws a QR code for data.
func (b *ShareBuilder) QRImageURL(data string) string {
	sep := "?"
	if strings.Contains(b.qrRenderer, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%ssize=%dx%d&data=%s", b.qrRenderer, sep, b.qrSize, b.qrSize, url.QueryEscape(data))
}

// Build assembles the full payload for link.
func (b *ShareBuilder) Build(link string) *SharePayload {
	shareURL := b.URL(link)
	return &SharePayload{
		CardLink:   NormalizeLink(link),
		URL:        shareURL,
		QRImageURL: b.QRImageURL(shareURL),
		QRSize:     b.qrSize,
	}
}
