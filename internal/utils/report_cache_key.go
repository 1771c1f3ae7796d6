package utils

// BuildMonthlySummaryCacheKey derives the cache key for a month's
// compliance summary. Versioned so the shape can change without
// serving stale payloads.
func BuildMonthlySummaryCacheKey(month string) string {
	return "reports:summary:v1:month=" + month
}
