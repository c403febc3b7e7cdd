package decision

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// 自由文本抽取层：按优先级正则链扫描标签化价格，全部失配时退化到
// 裸数字启发式。解析的是自然语言而不是文法，失败是常态，链条的每一环
// 只负责"尽力"。

const numberPattern = `(\d+(?:,\d+)*(?:\.\d+)?)`

var (
	entryPatterns  = compileLabeled([]string{
		`入场价格[：:]\s*`,
		`买入目标价[：:]\s*`,
		`建议在\s*`,
		`入场价[：:]\s*`,
		`买入价[：:]\s*`,
		`卖出价格[：:]\s*`,
		`建议买入价格[：:]\s*`,
		`entry\s*(?:price)?[：:]\s*\$?`,
		`当前价格[：:]\s*`,
		`价格[：:]\s*`,
	})
	stopPatterns = compileLabeled([]string{
		`止损价格[：:]\s*`,
		`止损位[：:]\s*`,
		`设置止损位在\s*`,
		`止损位在\s*`,
		`止损价[：:]\s*`,
		`止损价位[：:]\s*`,
		`建议止损[：:]\s*`,
		`stop[\s-]*loss[：:]\s*\$?`,
	})
	profitPatterns = compileLabeled([]string{
		`止盈目标[：:]\s*`,
		`目标价[：:]\s*`,
		`目标价为\s*`,
		`目标价设定为\s*`,
		`止盈价[：:]\s*`,
		`止盈价位[：:]\s*`,
		`建议止盈[：:]\s*`,
		`目标价格[：:]\s*`,
		`take[\s-]*profit[：:]\s*\$?`,
		`target[：:]\s*\$?`,
	})

	confidencePattern   = regexp.MustCompile(`置信度[：:]\s*(\d+(?:\.\d+)?)`)
	riskScorePattern    = regexp.MustCompile(`风险评分[：:]\s*(\d+(?:\.\d+)?)`)
	positionPattern     = regexp.MustCompile(`仓位(?:比例|百分比)?[：:]\s*(\d+(?:\.\d+)?)`)
	bareNumberPattern   = regexp.MustCompile(`(\d{4,}(?:\.\d+)?)`)
	thousandsSeparators = strings.NewReplacer(",", "")
)

func compileLabeled(labels []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?i)`+l+numberPattern))
	}
	return out
}

// firstLabeled 按优先级取第一个命中的标签化数字。
func firstLabeled(text string, patterns []*regexp.Regexp) (decimal.Decimal, bool) {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if v, err := parseNumber(m[1]); err == nil {
			return v, true
		}
	}
	return decimal.Decimal{}, false
}

// bareNumbers 收集超过量级阈值的裸数字并升序排序，用于无标签兜底。
// 阈值挡掉百分比/比率这类小数字。
func bareNumbers(text string, minMagnitude decimal.Decimal) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range bareNumberPattern.FindAllString(text, -1) {
		v, err := parseNumber(m)
		if err != nil {
			continue
		}
		if v.GreaterThan(minMagnitude) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

func parseNumber(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(thousandsSeparators.Replace(strings.TrimSpace(s)))
}

// unitScore 解析 0-1 评分，容忍按百分数书写（75 -> 0.75）。
func unitScore(text string, p *regexp.Regexp) (float64, bool) {
	m := p.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	v, err := parseNumber(m[1])
	if err != nil {
		return 0, false
	}
	f, _ := v.Float64()
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}

// afterMarker 截取终结标记之后的文本；多次出现取最后一次。
func afterMarker(text, marker string) (string, bool) {
	idx := strings.LastIndex(text, marker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(text[idx+len(marker):]), true
}

// classify 在标记后的尾部文本里按关键字顺序匹配动作。
func classify(tail string, vocab []actionKeyword) (Action, bool) {
	for _, kw := range vocab {
		if strings.Contains(tail, kw.word) {
			return kw.action, true
		}
	}
	return ActionHold, false
}

type actionKeyword struct {
	word   string
	action Action
}
