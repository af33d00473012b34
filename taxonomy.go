package cliorch

import (
	"regexp"
	"strings"
)

// ErrorCategory is the closed set of error classes the taxonomy maps raw
// textual agent output into. See §3 and §4.A.
type ErrorCategory string

const (
	CategoryRateLimited   ErrorCategory = "rate_limited"
	CategoryAuthExpired   ErrorCategory = "auth_expired"
	CategoryQuotaExceeded ErrorCategory = "quota_exceeded"
	CategoryTransient     ErrorCategory = "transient"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryPermanent     ErrorCategory = "permanent"
	CategoryUnknown       ErrorCategory = "unknown"
)

// Action is what the conductor should do once a category is known.
type Action string

const (
	ActionSwitchProvider   Action = "switch_provider"
	ActionRetryWithBackoff Action = "retry_with_backoff"
	ActionEscalate         Action = "escalate"
)

type categoryInfo struct {
	description string
	action      Action
	retryable   bool
}

// categoryTable is the authoritative per-category metadata. unknown is
// deliberately retryable=true — see §4.A and §9: undiagnosed failures get a
// bounded second chance rather than an immediate escalation.
var categoryTable = map[ErrorCategory]categoryInfo{
	CategoryRateLimited:   {"the provider reported a rate limit", ActionSwitchProvider, true},
	CategoryAuthExpired:   {"the provider rejected credentials", ActionSwitchProvider, false},
	CategoryQuotaExceeded: {"the provider reported exhausted quota or billing limits", ActionSwitchProvider, false},
	CategoryTransient:     {"the provider reported a transient server-side failure", ActionRetryWithBackoff, true},
	CategoryTimeout:       {"the call exceeded its deadline", ActionRetryWithBackoff, true},
	CategoryPermanent:     {"the request itself was malformed", ActionEscalate, false},
	CategoryUnknown:       {"the failure did not match any known pattern", ActionRetryWithBackoff, true},
}

// ActionFor returns the recommended action for a category.
func ActionFor(cat ErrorCategory) Action {
	return categoryTable[cat].action
}

// Retryable reports whether a category warrants another attempt at all
// (on any provider), as opposed to escalating immediately.
func Retryable(cat ErrorCategory) bool {
	return categoryTable[cat].retryable
}

// DescriptionFor returns a human-readable description of a category.
func DescriptionFor(cat ErrorCategory) string {
	return categoryTable[cat].description
}

// genericPattern pairs a category with the regex that identifies it. Order
// matters: classify tries these in declaration order and the first match
// wins, exactly as §4.A specifies.
type genericPattern struct {
	category ErrorCategory
	pattern  *regexp.Regexp
}

var genericPatterns = []genericPattern{
	{CategoryRateLimited, regexp.MustCompile(`rate.?limit|too many requests|\b429\b`)},
	{CategoryQuotaExceeded, regexp.MustCompile(`quota|usage.?limit|billing`)},
	{CategoryAuthExpired, regexp.MustCompile(`auth|unauthorized|forbidden|invalid.*(key|token)|\b401\b|\b403\b`)},
	{CategoryTimeout, regexp.MustCompile(`timeout|timed.?out`)},
	{CategoryTransient, regexp.MustCompile(`temporary|retry|\b50[023]\b`)},
	{CategoryPermanent, regexp.MustCompile(`invalid|malformed|bad.?request|\b400\b`)},
}

// ProviderPatterns maps a category to the ordered list of regexes a
// specific adapter recognizes in its own error output, per §4.F's
// error_patterns() contract. Declaration order within a category's slice is
// irrelevant; declaration order of categories as returned by an adapter is
// what classify walks, so adapters should return patterns in the order they
// want checked.
type ProviderPatterns map[ErrorCategory][]*regexp.Regexp

// Classify maps a raw error message to an ErrorCategory. If providerPatterns
// is non-nil, its regexes are tried first, in the order given by
// orderedCategories (or, if that's empty, in iteration order over the map).
// Classify lowercases the message before matching, and is idempotent:
// Classify(m) == Classify(strings.ToLower(m)).
func Classify(errorMessage string, providerPatterns ProviderPatterns, orderedCategories []ErrorCategory) ErrorCategory {
	lower := strings.ToLower(errorMessage)

	if len(providerPatterns) > 0 {
		order := orderedCategories
		if len(order) == 0 {
			for cat := range providerPatterns {
				order = append(order, cat)
			}
		}
		for _, cat := range order {
			for _, re := range providerPatterns[cat] {
				if re.MatchString(lower) {
					return cat
				}
			}
		}
	}

	for _, gp := range genericPatterns {
		if gp.pattern.MatchString(lower) {
			return gp.category
		}
	}

	return CategoryUnknown
}
