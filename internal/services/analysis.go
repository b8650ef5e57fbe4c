package services

import (
	"context"
	"fmt"

	"sitelog/internal/core"
	"sitelog/internal/log"
)

// Analysis lifecycle states.
const (
	AnalysisIdle       = "idle"
	AnalysisProcessing = "processing"
	AnalysisSuccess    = "success"
	AnalysisError      = "error"
)

// AnalysisState is the outcome of the latest analysis request. On success
// Message holds the generated report; on error, the reason.
type AnalysisState struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Date    core.Date `json:"date"`
}

// Analyze summarises the entries visible under sel. The store is never
// modified; failures are reported through the returned state.
func (l *Logbook) Analyze(ctx context.Context, sel core.Selection) AnalysisState {
	l.mu.Lock()
	if l.analyzer == nil {
		l.lastAnalysis = AnalysisState{Status: AnalysisError, Message: "analysis is not configured", Date: sel.Date}
		st := l.lastAnalysis
		l.mu.Unlock()
		return st
	}
	if l.lastAnalysis.Status == AnalysisProcessing {
		st := l.lastAnalysis
		l.mu.Unlock()
		return st
	}
	visible := core.View(l.store.All(), sel).Entries
	l.lastAnalysis = AnalysisState{Status: AnalysisProcessing, Message: "正在分析施工日志...", Date: sel.Date}
	l.mu.Unlock()

	var st AnalysisState
	if len(visible) == 0 {
		st = AnalysisState{Status: AnalysisError, Message: fmt.Sprintf("no entries to analyze for %s", sel.Date), Date: sel.Date}
	} else if text, err := l.analyzer.Analyze(ctx, visible, sel.Date); err != nil {
		l.logger.WarnContext(ctx, "Analysis failed",
			log.FieldOperation, log.OpAnalyze, log.FieldDate, sel.Date.String(), log.FieldError, err)
		st = AnalysisState{Status: AnalysisError, Message: err.Error(), Date: sel.Date}
	} else {
		st = AnalysisState{Status: AnalysisSuccess, Message: text, Date: sel.Date}
	}

	l.mu.Lock()
	l.lastAnalysis = st
	l.mu.Unlock()
	return st
}

// LastAnalysis returns the outcome of the latest analysis.
func (l *Logbook) LastAnalysis() AnalysisState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastAnalysis
}
