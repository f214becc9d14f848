// Package messaging builds click-to-chat links for instant messaging notices.
package messaging

import (
	"net/url"
	"strings"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/notice"
)

const DefaultBaseURL = "https://wa.me"

type LinkBuilder struct {
	baseURL string
}

var _ notice.LinkBuilder = (*LinkBuilder)(nil)

func NewLinkBuilder(conf *core.Config) *LinkBuilder {
	base := strings.TrimRight(conf.Messaging.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &LinkBuilder{baseURL: base}
}

// BuildLink returns `<base>/<phone>?text=<text>`. Spaces are escaped as %20: chat apps show a literal `+`.
func (lb *LinkBuilder) BuildLink(phone, text string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return lb.baseURL + "/" + phone + "?text=" + escaped
}
