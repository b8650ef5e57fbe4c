// Package analysis produces natural-language summaries of a day's work entries.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"sitelog/internal/core"
)

// Analyzer summarises the entries recorded for one date.
type Analyzer interface {
	Analyze(ctx context.Context, entries []core.Entry, date core.Date) (string, error)
}

// BuildPrompt renders the entries of date as a request for a daily site report.
func BuildPrompt(entries []core.Entry, date core.Date) string {
	var sb strings.Builder

	sb.WriteString("你是一名道路工程现场监理。请根据以下施工日志，用中文写一份简洁的当日施工分析报告。\n\n")
	fmt.Fprintf(&sb, "日期: %s\n", date.String())
	fmt.Fprintf(&sb, "记录条数: %d\n\n", len(entries))

	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. [%s/%s] %s", i+1, e.Category, e.SubCategory, e.Description)
		if e.Location != "" {
			fmt.Fprintf(&sb, " 位置: %s", e.Location)
		}
		fmt.Fprintf(&sb, " 数量: %g", e.Amount)
		if e.Status.Valid() {
			fmt.Fprintf(&sb, " 状态: %s", e.Status.Label())
		}
		if e.Notes != "" {
			fmt.Fprintf(&sb, " 备注: %s", e.Notes)
		}
		for _, r := range e.Resources {
			fmt.Fprintf(&sb, " %s:%s×%g%s", r.Kind.Label(), r.Name, r.Count, r.Unit)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`
报告要求:
- 总结当日完成的主要工程量
- 指出状态为紧急或审核中的事项
- 评估人员、机械、材料投入是否合理
- 给出次日施工建议
不要使用 Markdown 标题，控制在 400 字以内。`)

	return sb.String()
}
