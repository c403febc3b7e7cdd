package dataflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const maxNewsItems = 10

// FetchNews 拉取指定币种的最新聚合新闻，最多返回 maxNewsItems 条。
// 未配置 API key 时直接返回空集，由调用方按"无新闻数据"降级。
func (c *Client) FetchNews(ctx context.Context, base string) ([]NewsItem, error) {
	if c.cfg.CryptoPanicAPIKey == "" {
		return nil, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"auth_token": c.cfg.CryptoPanicAPIKey,
			"currencies": strings.ToUpper(base),
			"public":     "true",
		}).
		Get(c.cfg.CryptoPanicBaseURL + "/posts/")
	if err != nil {
		return nil, fmt.Errorf("cryptopanic 请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cryptopanic 返回 %d", resp.StatusCode())
	}

	var items []NewsItem
	for _, post := range gjson.GetBytes(resp.Body(), "results").Array() {
		if len(items) >= maxNewsItems {
			break
		}
		published, _ := time.Parse(time.RFC3339, post.Get("published_at").String())
		items = append(items, NewsItem{
			Title:       post.Get("title").String(),
			Source:      post.Get("source.title").String(),
			PublishedAt: published,
			URL:         post.Get("url").String(),
		})
	}
	return items, nil
}
