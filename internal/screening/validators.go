package screening

import (
	"strconv"
	"strings"
	"time"
)

// ItemID identifies one of the five screening questions. The values match
// the form field names the front-end submits.
type ItemID string

const (
	OrientationDateItem ItemID = "q1"
	WordRecallItem      ItemID = "q2"
	CountdownItem       ItemID = "q3"
	WordReversalItem    ItemID = "q4"
	CategoryRecallItem  ItemID = "q5"
)

// ItemCount is the fixed size of the battery.
const ItemCount = 5

// ItemIDs lists the battery items in presentation order.
var ItemIDs = [ItemCount]ItemID{
	OrientationDateItem,
	WordRecallItem,
	CountdownItem,
	WordReversalItem,
	CategoryRecallItem,
}

// Title returns a short human-readable name for the item.
func (id ItemID) Title() string {
	switch id {
	case OrientationDateItem:
		return "Orientation (date)"
	case WordRecallItem:
		return "Word recall"
	case CountdownItem:
		return "Serial countdown"
	case WordReversalItem:
		return "Word reversal"
	case CategoryRecallItem:
		return "Category recall"
	}
	return string(id)
}

// Valid reports whether id is one of the five battery items.
func (id ItemID) Valid() bool {
	for _, known := range ItemIDs {
		if id == known {
			return true
		}
	}
	return false
}

// CountdownRule parameterizes the serial countdown check.
type CountdownRule struct {
	Start         int `yaml:"start" json:"start"`
	MinNumbers    int `yaml:"min_numbers" json:"minNumbers"`
	CheckedPrefix int `yaml:"checked_prefix" json:"checkedPrefix"`
}

// Rules holds the expected answers for the battery.
type Rules struct {
	RecallWords       []string
	ReversalTarget    string
	CategoryMinimum   int
	DateToleranceDays int
	Countdown         CountdownRule
}

// DefaultRules returns the standard battery: recall apple/table/penny,
// reverse WORLD, name three animals, count down from 20.
func DefaultRules() Rules {
	return Rules{
		RecallWords:       []string{"apple", "table", "penny"},
		ReversalTarget:    "WORLD",
		CategoryMinimum:   3,
		DateToleranceDays: 1,
		Countdown: CountdownRule{
			Start:         20,
			MinNumbers:    5,
			CheckedPrefix: 10,
		},
	}
}

// Check normalizes raw for the given item and runs its validator. Unknown
// items never pass.
func (r Rules) Check(id ItemID, raw string, on time.Time) (normalized string, passed bool) {
	switch id {
	case OrientationDateItem:
		return Lower(Compact(raw)), OrientationDate(raw, on, r.DateToleranceDays)
	case WordRecallItem:
		return strings.Join(Tokens(Lower(raw)), " "), WordRecall(raw, r.RecallWords)
	case CountdownItem:
		return strings.Join(Tokens(raw), " "), SerialCountdown(raw, r.Countdown)
	case WordReversalItem:
		return Upper(Compact(raw)), WordReversal(raw, r.ReversalTarget)
	case CategoryRecallItem:
		return strings.Join(Tokens(Lower(raw)), " "), CategoryRecall(raw, r.CategoryMinimum)
	}
	return Normalize(raw), false
}

// OrientationDate accepts a day/month/year date typed with '/', '-' or '.'
// separators and passes when it lies within toleranceDays calendar days of
// on. A four-digit first field is read as year/month/day instead.
func OrientationDate(answer string, on time.Time, toleranceDays int) bool {
	s := Compact(answer)
	if s == "" {
		return false
	}
	s = strings.NewReplacer("-", "/", ".", "/").Replace(s)
	fields := strings.Split(s, "/")
	if len(fields) != 3 {
		return false
	}

	nums := make([]int, 3)
	for i, f := range fields {
		if f == "" || !isDigits(f) {
			return false
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return false
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	yearField := fields[2]
	if len(fields[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
		yearField = fields[0]
	}
	if len(yearField) <= 2 {
		year += 2000
	}

	got, ok := civilDate(year, month, day)
	if !ok {
		return false
	}
	ref := time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC)

	diff := got.Sub(ref) / (24 * time.Hour)
	if diff < 0 {
		diff = -diff
	}
	return int64(diff) <= int64(toleranceDays)
}

// civilDate builds a UTC midnight date, rejecting values time.Date would
// silently roll over (month 13, April 31st).
func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// WordRecall passes when every target word appears as a token of the
// answer, in any order and regardless of case, duplicates or extra words.
func WordRecall(answer string, targets []string) bool {
	if len(targets) == 0 {
		return false
	}
	seen := make(map[string]struct{})
	for _, tok := range Tokens(Lower(answer)) {
		seen[tok] = struct{}{}
	}
	if len(seen) == 0 {
		return false
	}
	for _, w := range targets {
		if _, ok := seen[Lower(w)]; !ok {
			return false
		}
	}
	return true
}

// SerialCountdown checks a countdown list. Only the first CheckedPrefix
// numbers are compared against Start, Start-1, ...; anything after them is
// ignored.
func SerialCountdown(answer string, rule CountdownRule) bool {
	s := Normalize(answer)
	if s == "" {
		return false
	}

	nums := integers(splitComma(s))
	if len(nums) < rule.MinNumbers {
		nums = integers(Tokens(s))
	}
	if len(nums) == 0 || len(nums) < rule.MinNumbers {
		return false
	}

	n := min(rule.CheckedPrefix, len(nums))
	for i := 0; i < n; i++ {
		if nums[i] != rule.Start-i {
			return false
		}
	}
	return true
}

// WordReversal passes when the answer, ignoring whitespace and case, is the
// target spelled backwards.
func WordReversal(answer, target string) bool {
	got := Upper(Compact(answer))
	want := reverse(Upper(Compact(target)))
	return got != "" && got == want
}

// CategoryRecall passes when at least minimum tokens are not plain numbers.
// The tokens are not checked against any real category.
func CategoryRecall(answer string, minimum int) bool {
	if minimum < 1 {
		minimum = 1
	}
	words := 0
	for _, tok := range Tokens(Lower(answer)) {
		if !isNumeric(tok) {
			words++
		}
	}
	return words >= minimum
}

func integers(tokens []string) []int {
	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if n, err := strconv.Atoi(tok); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
