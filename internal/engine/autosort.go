package engine

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"shorts/internal/config"
	"shorts/internal/logging"
	"shorts/internal/metrics"
)

// AutoSortMove is one file placed by a keyword rule.
type AutoSortMove struct {
	FileName string `json:"fileName"`
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}

// AutoSortFailure is a matched file that could not be moved.
type AutoSortFailure struct {
	FileName string `json:"fileName"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// AutoSortResult summarizes one AutoSort pass.
type AutoSortResult struct {
	Moved  []AutoSortMove    `json:"moved"`
	Failed []AutoSortFailure `json:"failed"`
}

// Rules returns a copy of the configured keyword rules.
func (o *Organizer) Rules() []config.Rule {
	return append([]config.Rule{}, o.rules...)
}

// MatchRule returns the first rule whose keyword occurs in fileName,
// ignoring case and Unicode normalization form.
func (o *Organizer) MatchRule(fileName string) (config.Rule, bool) {
	haystack := strings.ToLower(norm.NFC.String(fileName))
	for _, rule := range o.rules {
		needle := strings.ToLower(norm.NFC.String(rule.Keyword))
		if needle != "" && strings.Contains(haystack, needle) {
			return rule, true
		}
	}
	return config.Rule{}, false
}

// AutoSort moves every media file in downloads that matches a rule into the
// rule's category. Files without a match stay put.
func (o *Organizer) AutoSort() (AutoSortResult, error) {
	result := AutoSortResult{Moved: []AutoSortMove{}, Failed: []AutoSortFailure{}}

	files, err := o.ListDownloads()
	if err != nil {
		return result, err
	}
	for _, f := range files {
		rule, ok := o.MatchRule(f.Name)
		if !ok {
			continue
		}
		err := o.MoveFile(f.Name, rule.Category)
		metrics.RecordAutoSortMove(err == nil)
		if err != nil {
			logging.Warn("auto-sort move failed",
				zap.String("file", f.Name),
				zap.String("category", rule.Category),
				zap.Error(err))
			result.Failed = append(result.Failed, AutoSortFailure{
				FileName: f.Name,
				Category: rule.Category,
				Error:    err.Error(),
			})
			continue
		}
		result.Moved = append(result.Moved, AutoSortMove{
			FileName: f.Name,
			Category: rule.Category,
			Keyword:  rule.Keyword,
		})
	}
	logging.Info("auto-sort finished",
		zap.Int("moved", len(result.Moved)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}
