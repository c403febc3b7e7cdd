package decision

import "github.com/shopspring/decimal"

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// MinRewardRisk 是允许的最低盈亏比 |止盈-入场| / |入场-止损|。
const MinRewardRisk = 2.0

// Structured 是从自由文本里提取并修复后的交易决策。
// 价格字段在 action=hold 时为 NA（NullDecimal 无效态）。
type Structured struct {
	Symbol     string              `json:"symbol"`
	Action     Action              `json:"action"`
	EntryPrice decimal.NullDecimal `json:"entry_price"`
	StopLoss   decimal.NullDecimal `json:"stop_loss"`
	TakeProfit decimal.NullDecimal `json:"take_profit"`
	Confidence float64             `json:"confidence_score"`
	RiskScore  float64             `json:"risk_score"`
	// Narrative 保留完整原文，供审计回溯。
	Narrative string `json:"analysis"`
}

// Risk 是风险经理叙述归一化后的最终风险决策。
type Risk struct {
	Symbol       string  `json:"symbol"`
	Action       Action  `json:"final_decision"`
	RiskLevel    string  `json:"risk_level"`    // low | medium | high
	PositionSize float64 `json:"position_size"` // 0-1 仓位比例
	Narrative    string  `json:"analysis"`
}

// RewardRisk 计算盈亏比；任一价格缺失或止损距离为零时返回 0。
func (d *Structured) RewardRisk() float64 {
	if !d.EntryPrice.Valid || !d.StopLoss.Valid || !d.TakeProfit.Valid {
		return 0
	}
	risk := d.EntryPrice.Decimal.Sub(d.StopLoss.Decimal).Abs()
	if risk.IsZero() {
		return 0
	}
	reward := d.TakeProfit.Decimal.Sub(d.EntryPrice.Decimal).Abs()
	rr, _ := reward.Div(risk).Float64()
	return rr
}

func validPrice(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
