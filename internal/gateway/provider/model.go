package provider

import "context"

type ChatPayload struct {
	System string
	User   string
}

// ModelProvider 抽象文本补全后端：一段 prompt 换一段 prose，
// 上层只关心返回的文本。
type ModelProvider interface {
	ID() string
	Call(ctx context.Context, payload ChatPayload) (string, error)
}
