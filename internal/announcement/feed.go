package announcement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/hitoshi/propertypulse/internal/model"
)

// feedItemLimit はRSSに含めるお知らせの最大件数。
const feedItemLimit = 50

// Feed はお知らせ一覧をRSS 2.0として出力する。siteURLはチャンネルと各項目のリンクに使う。
func (s *Service) Feed(ctx context.Context, siteURL string) ([]byte, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return renderRSS(items, strings.TrimRight(siteURL, "/"))
}

func renderRSS(items []*model.Announcement, siteURL string) ([]byte, error) {
	if len(items) > feedItemLimit {
		items = items[:feedItemLimit]
	}

	feed := &feeds.Feed{
		Title:       "PropertyPulse Announcements",
		Link:        &feeds.Link{Href: siteURL + "/announcements"},
		Description: "PropertyPulseからのお知らせ",
		Items:       make([]*feeds.Item, 0, len(items)),
	}
	// 一覧は新しい順なので先頭がlastBuildDateになる。
	if len(items) > 0 {
		feed.Updated = items[0].CreatedAt.UTC()
	}
	for _, a := range items {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          a.ID,
			Title:       a.Title,
			Link:        &feeds.Link{Href: siteURL + "/announcements#" + a.ID},
			Description: a.Description,
			Created:     a.CreatedAt.UTC().Truncate(time.Second),
		})
	}

	out, err := feed.ToRss()
	if err != nil {
		return nil, fmt.Errorf("failed to encode rss: %w", err)
	}
	return []byte(out), nil
}
