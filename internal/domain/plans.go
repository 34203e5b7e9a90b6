package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DurationBucket groups data plans by validity window for display.
type DurationBucket string

const (
	BucketDaily   DurationBucket = "daily"
	BucketWeekly  DurationBucket = "weekly"
	BucketMonthly DurationBucket = "monthly"
)

const defaultPlanDays = 30

var durationPattern = regexp.MustCompile(`(\d+)\s*(hours?|hrs?|days?|weeks?|months?|mo)\b`)

// ClassifyPlanDuration normalizes a free-text plan name and validity field
// into a duration bucket. Upstream plan names are inconsistently formatted,
// so classification is staged: a number+unit regex pass first, then a keyword
// fallback that only fires when the regex stage was inconclusive (zero or the
// 30-day default). Unresolvable plans default to monthly rather than erroring,
// since plan display must never block on ambiguous metadata.
func ClassifyPlanDuration(name, validity string) (DurationBucket, string) {
	text := strings.ToLower(name + " " + validity)

	days := defaultPlanDays
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "hour"), strings.HasPrefix(m[2], "hr"):
			days = 1
		case strings.HasPrefix(m[2], "day"):
			days = n
		case strings.HasPrefix(m[2], "week"):
			days = n * 7
		default: // month
			days = n * 30
		}
	}

	if days == 0 || days == defaultPlanDays {
		switch {
		case strings.Contains(text, "daily"), strings.Contains(text, "24hr"), strings.Contains(text, "24 hr"):
			days = 1
		case strings.Contains(text, "weekly"):
			days = 7
		case strings.Contains(text, "monthly"), strings.Contains(text, "30 days"):
			days = defaultPlanDays
		}
	}
	if days <= 0 {
		days = defaultPlanDays
	}

	bucket := BucketMonthly
	switch {
	case days <= 1:
		bucket = BucketDaily
	case days <= 7:
		bucket = BucketWeekly
	}
	return bucket, formatDays(days)
}

func formatDays(days int) string {
	if days == 1 {
		return "1 Day"
	}
	return fmt.Sprintf("%d Days", days)
}
