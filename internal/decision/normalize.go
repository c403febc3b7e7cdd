package decision

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 归一化层：把解析层"尽力而为"的产物修复成满足约束的结构化决策。
// 每一步兜底都有对应的单测钉住行为。

const (
	defaultConfidence     = 0.75
	defaultHoldConfidence = 0.5
	defaultRiskScore      = 0.5

	defaultPositionSize  = 0.3
	fallbackPositionSize = 0.2
)

var (
	// 模型偶尔会用全角冒号，两种都认
	tradingMarkers = []string{"最终交易建议:", "最终交易建议："}
	riskMarkers    = []string{"最终风险决策:", "最终风险决策："}

	// 裸数字兜底的量级阈值，低于它的数字按百分比/比率忽略
	bareMagnitudeFloor = decimal.NewFromInt(1000)
	// 完全无价可依时的入场价兜底
	defaultPriceFloor = decimal.NewFromInt(113000)

	heuristicStopRatio = decimal.NewFromFloat(0.95)
	buyStopRatio       = decimal.NewFromFloat(0.97)
	sellStopRatio      = decimal.NewFromFloat(1.03)
	rewardScale        = decimal.NewFromFloat(2.5)
)

var tradingVocab = []actionKeyword{
	{"买入", ActionBuy},
	{"卖出", ActionSell},
	{"观望", ActionHold},
	{"buy", ActionBuy},
	{"sell", ActionSell},
	{"hold", ActionHold},
}

var riskVocab = []actionKeyword{
	{"买入", ActionBuy},
	{"卖出", ActionSell},
	{"持有", ActionHold},
	{"观望", ActionHold},
	{"buy", ActionBuy},
	{"sell", ActionSell},
	{"hold", ActionHold},
}

// TradingContext 携带归一化所需的外部上下文。
type TradingContext struct {
	Symbol string
	// CurrentPrice 为技术面预先提取的市价，作为入场价的倒数第二级兜底；
	// 无效时用固定地板价。
	CurrentPrice decimal.NullDecimal
}

// ParseTrading 把交易员叙述归一化为结构化决策。纯函数，永不报错：
// 提取不出来的字段沿兜底链补齐，最后强制盈亏比 >= MinRewardRisk。
func ParseTrading(narrative string, ctx TradingContext) Structured {
	action := extractAction(narrative, tradingMarkers, tradingVocab)

	d := Structured{
		Symbol:     ctx.Symbol,
		Action:     action,
		Narrative:  narrative,
		Confidence: defaultHoldConfidence,
		RiskScore:  defaultRiskScore,
	}
	if action == ActionHold {
		// 观望不给价格，置信度/风险保持中性
		applyScores(&d, narrative, defaultHoldConfidence)
		return d
	}

	entry, entryOK := firstLabeled(narrative, entryPatterns)
	stop, stopOK := firstLabeled(narrative, stopPatterns)
	profit, profitOK := firstLabeled(narrative, profitPatterns)

	// 没有任何带标签的价格时，退化到裸数字启发式：最低价入场、
	// 最高价止盈、止损取入场的 95%
	if !entryOK && !stopOK && !profitOK {
		if nums := bareNumbers(narrative, bareMagnitudeFloor); len(nums) >= 3 {
			entry, entryOK = nums[0], true
			profit, profitOK = nums[len(nums)-1], true
			stop, stopOK = entry.Mul(heuristicStopRatio), true
		}
	}
	if !entryOK {
		if ctx.CurrentPrice.Valid && ctx.CurrentPrice.Decimal.IsPositive() {
			entry = ctx.CurrentPrice.Decimal
		} else {
			entry = defaultPriceFloor
		}
	}

	// 方向不对的止损/止盈视同没提取到，交给派生规则
	if stopOK && !stopSideValid(action, entry, stop) {
		stopOK = false
	}
	if !stopOK {
		stop = deriveStop(action, entry)
	}
	if profitOK && !profitSideValid(action, entry, profit) {
		profitOK = false
	}

	riskDist := entry.Sub(stop).Abs()
	if !profitOK || belowMinRewardRisk(entry, profit, riskDist) {
		profit = deriveProfit(action, entry, riskDist)
	}

	d.EntryPrice = validPrice(entry)
	d.StopLoss = validPrice(stop)
	d.TakeProfit = validPrice(profit)
	applyScores(&d, narrative, defaultConfidence)
	return d
}

// ParseRisk 把风险经理叙述归一化为最终风险决策（含仓位比例）。
func ParseRisk(narrative string, symbol string) Risk {
	r := Risk{
		Symbol:       symbol,
		Narrative:    narrative,
		Action:       ActionHold,
		RiskLevel:    "medium",
		PositionSize: fallbackPositionSize,
	}
	if narrative == "" {
		return r
	}
	r.Action = extractAction(narrative, riskMarkers, riskVocab)
	r.RiskLevel = classifyRiskLevel(narrative)
	r.PositionSize = defaultPositionSize
	if m := positionPattern.FindStringSubmatch(narrative); len(m) == 2 {
		if v, err := parseNumber(m[1]); err == nil {
			f, _ := v.Float64()
			if f > 1 {
				f /= 100
			}
			if f > 0 && f <= 1 {
				r.PositionSize = f
			}
		}
	}
	return r
}

func extractAction(narrative string, markers []string, vocab []actionKeyword) Action {
	for _, marker := range markers {
		if tail, ok := afterMarker(narrative, marker); ok {
			action, _ := classify(tail, vocab)
			return action
		}
	}
	return ActionHold
}

func applyScores(d *Structured, narrative string, confidenceDefault float64) {
	d.Confidence = confidenceDefault
	d.RiskScore = defaultRiskScore
	if v, ok := unitScore(narrative, confidencePattern); ok {
		d.Confidence = v
	}
	if v, ok := unitScore(narrative, riskScorePattern); ok {
		d.RiskScore = v
	}
}

func stopSideValid(action Action, entry, stop decimal.Decimal) bool {
	if !stop.IsPositive() {
		return false
	}
	if action == ActionBuy {
		return stop.LessThan(entry)
	}
	return stop.GreaterThan(entry)
}

func profitSideValid(action Action, entry, profit decimal.Decimal) bool {
	if !profit.IsPositive() {
		return false
	}
	if action == ActionBuy {
		return profit.GreaterThan(entry)
	}
	return profit.LessThan(entry)
}

func deriveStop(action Action, entry decimal.Decimal) decimal.Decimal {
	if action == ActionBuy {
		return entry.Mul(buyStopRatio)
	}
	return entry.Mul(sellStopRatio)
}

func deriveProfit(action Action, entry, riskDist decimal.Decimal) decimal.Decimal {
	delta := riskDist.Mul(rewardScale)
	if action == ActionBuy {
		return entry.Add(delta)
	}
	return entry.Sub(delta)
}

func belowMinRewardRisk(entry, profit, riskDist decimal.Decimal) bool {
	if riskDist.IsZero() {
		return true
	}
	reward := profit.Sub(entry).Abs()
	rr, _ := reward.Div(riskDist).Float64()
	return rr < MinRewardRisk
}

func classifyRiskLevel(narrative string) string {
	lower := strings.ToLower(narrative)
	switch {
	case strings.Contains(narrative, "高风险") || strings.Contains(lower, "high"):
		return "high"
	case strings.Contains(narrative, "低风险") || strings.Contains(lower, "low"):
		return "low"
	default:
		return "medium"
	}
}
