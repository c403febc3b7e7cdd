package dataflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// 常见币种对应的主力讨论区；不在表里的用小写符号猜子版名。
var subreddits = map[string]string{
	"BTC":  "Bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
}

func subredditFor(base string) string {
	if sub, ok := subreddits[strings.ToUpper(base)]; ok {
		return sub
	}
	return strings.ToLower(base)
}

// FetchSocial 汇总 Reddit 社区热度与恐惧贪婪指数。两个来源独立降级：
// 任一失败不影响另一个的数据，两个都失败才报错。
func (c *Client) FetchSocial(ctx context.Context, base string) (*SocialPulse, error) {
	pulse := &SocialPulse{Subreddit: subredditFor(base)}

	redditErr := c.fillReddit(ctx, pulse)
	fngErr := c.fillFearGreed(ctx, pulse)
	if redditErr != nil && fngErr != nil {
		return nil, fmt.Errorf("社交数据全部失败: reddit: %v; fng: %v", redditErr, fngErr)
	}
	return pulse, nil
}

func (c *Client) fillReddit(ctx context.Context, pulse *SocialPulse) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.cfg.RedditBaseURL + "/r/" + pulse.Subreddit + "/about.json")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("reddit 返回 %d", resp.StatusCode())
	}
	data := gjson.GetBytes(resp.Body(), "data")
	pulse.Subscribers = data.Get("subscribers").Int()
	pulse.ActiveUsers = data.Get("active_user_count").Int()
	return nil
}

func (c *Client) fillFearGreed(ctx context.Context, pulse *SocialPulse) error {
	resp, err := c.http.R().SetContext(ctx).Get(c.cfg.FearGreedURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("fng 返回 %d", resp.StatusCode())
	}
	latest := gjson.GetBytes(resp.Body(), "data.0")
	if !latest.Exists() {
		return fmt.Errorf("fng 响应缺少数据")
	}
	pulse.FearGreedValue = latest.Get("value").Int()
	pulse.FearGreedLabel = latest.Get("value_classification").String()
	return nil
}
