package resolver

import "log/slog"

// Summary partitions a batch of resolution results by provenance tier.
// It is purely observational; nothing in the decision chain reads it.
type Summary struct {
	Total    int `json:"total"`
	Trusted  int `json:"trusted"`
	Pattern  int `json:"pattern_library"`
	Live     int `json:"live_query"`
	NotFound int `json:"not_found"`
	Warnings int `json:"warnings"`
}

// Summarize counts results per tier.
func Summarize(results map[string]*Resolved) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		s.Warnings += len(r.Warnings)
		switch r.Source {
		case SourceTrusted:
			s.Trusted++
		case SourcePattern:
			s.Pattern++
		case SourceLive:
			s.Live++
		default:
			s.NotFound++
		}
	}
	return s
}

// Log writes the summary through the given logger.
func (s Summary) Log(logger *slog.Logger) {
	logger.Info("resolution summary",
		slog.Int("total", s.Total),
		slog.Int("trusted", s.Trusted),
		slog.Int("pattern_library", s.Pattern),
		slog.Int("live_query", s.Live),
		slog.Int("not_found", s.NotFound),
		slog.Int("warnings", s.Warnings))
}
