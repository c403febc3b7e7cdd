package decision

// OverallTrend 合并交易决策与最终风险决策得出整体趋势标签。
// 这是一条简单的优先级规则而不是加权投票：任一方买入即 bullish，
// 买入压过卖出。这个不对称是有意保留并被测试钉住的既有策略。
func OverallTrend(trading, risk Action) string {
	if trading == ActionBuy || risk == ActionBuy {
		return "bullish"
	}
	if trading == ActionSell || risk == ActionSell {
		return "bearish"
	}
	return "neutral"
}
