package retry

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// Hinter is implemented by errors that carry a provider-supplied retry
// delay, such as a Retry-After header or a RetryInfo detail.
type Hinter interface {
	RetryAfter() (time.Duration, bool)
}

// Rate-limited providers embed the suggested wait in free text in several
// shapes: Gemini RetryInfo details ("retryDelay": "12s"), "Please retry in
// 7.5s", and HTTP "retry-after: 30".
var hintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"retryDelay"\s*:\s*"([0-9.]+)s"`),
	regexp.MustCompile(`(?i)retry(?:ing)?\s+(?:in|after)\s+([0-9.]+)\s*s(?:ec(?:onds)?)?\b`),
	regexp.MustCompile(`(?i)retry-after[:=]\s*([0-9.]+)`),
}

const maxHintedDelay = 2 * time.Minute

// HintedDelay extracts a retry delay from err, either through the Hinter
// interface or by parsing the error text. The second return is false when no
// usable hint is present. Hints are clamped to a ceiling so a malformed
// provider message cannot stall a turn.
func HintedDelay(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var hinter Hinter
	if errors.As(err, &hinter) {
		if d, ok := hinter.RetryAfter(); ok && d > 0 {
			return clampHint(d), true
		}
	}

	text := err.Error()
	for _, re := range hintPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		secs, parseErr := strconv.ParseFloat(m[1], 64)
		if parseErr != nil || secs <= 0 {
			continue
		}
		return clampHint(time.Duration(secs * float64(time.Second))), true
	}
	return 0, false
}

func clampHint(d time.Duration) time.Duration {
	if d > maxHintedDelay {
		return maxHintedDelay
	}
	return d
}
