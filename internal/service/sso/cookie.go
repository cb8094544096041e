package sso

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/go-rod/rod/lib/proto"

	"github.com/oshokin/sso-grabber/internal/browser"
	"github.com/oshokin/sso-grabber/internal/utils"
)

// harvestCookies waits for the post-login marker, the sole signal that the
// authenticated landing page has rendered, then extracts cookies. The set is
// returned verbatim: no filtering, deduplication or expiry interpretation.
func (s *ServiceImpl) harvestCookies(ctx context.Context, br browser.Browser) ([]*proto.NetworkCookie, error) {
	if _, err := s.waitExists(ctx, stepPostLogin, s.cfg.PostLoginSelector); err != nil {
		return nil, err
	}

	s.sink.Event(ctx, EventStepCompleted, "step", stepPostLogin)

	s.delay(ctx, s.cfg.ParsedCookieDelay, "cookie_delay")

	var (
		cookies []*proto.NetworkCookie
		err     error
	)

	if s.cfg.GetAllBrowserCookies {
		cookies, err = br.Cookies()
	} else {
		cookies, err = s.page.Cookies([]string{s.cfg.LoginURL})
	}

	if err != nil {
		return nil, err
	}

	s.sink.Event(ctx, EventCookiesHarvested,
		"count", len(cookies),
		"size", humanize.Bytes(cookiePayloadSize(cookies)),
		"all_domains", s.cfg.GetAllBrowserCookies,
		"names", utils.Map(cookies, func(c *proto.NetworkCookie) string { return c.Name }))

	return cookies, nil
}

// cookiePayloadSize sums the name and value lengths of the harvested set.
func cookiePayloadSize(cookies []*proto.NetworkCookie) uint64 {
	var size uint64
	for _, c := range cookies {
		size += uint64(len(c.Name) + len(c.Value))
	}

	return size
}
