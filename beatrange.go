package tabalchi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BeatRange is a half-open interval [Begin, End) of 1-based beat positions.
// Begin < End always holds for ranges made with NewBeatRange or
// ParseBeatRange.
type BeatRange struct {
	Begin int
	End   int
}

func NewBeatRange(begin, end int) (BeatRange, error) {
	if begin >= end {
		return BeatRange{}, fmt.Errorf("beat range end (%d) must be greater than begin (%d)", end, begin)
	}
	return BeatRange{Begin: begin, End: end}, nil
}

// ParseBeatRange parses the "begin-end" form used as keys in composition
// documents, e.g. "1-17".
func ParseBeatRange(s string) (BeatRange, error) {
	b, e, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return BeatRange{}, fmt.Errorf("beat range %q should be of the form begin-end", s)
	}
	begin, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return BeatRange{}, fmt.Errorf("beat range %q: invalid begin: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(e))
	if err != nil {
		return BeatRange{}, fmt.Errorf("beat range %q: invalid end: %w", s, err)
	}
	return NewBeatRange(begin, end)
}

func (r BeatRange) String() string {
	return fmt.Sprintf("%d-%d", r.Begin, r.End)
}

// Len returns the number of beats in the range.
func (r BeatRange) Len() int {
	return r.End - r.Begin
}

// Contains reports if Begin <= beat < End.
func (r BeatRange) Contains(beat int) bool {
	return r.Begin <= beat && beat < r.End
}

// SortBeatRanges returns a copy of the ranges sorted by Begin.
func SortBeatRanges(ranges []BeatRange) []BeatRange {
	ret := make([]BeatRange, len(ranges))
	copy(ret, ranges)
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Begin < ret[j].Begin })
	return ret
}

// IsContiguousSequence reports if the ranges, once sorted, abut exactly
// (each End equals the next Begin) and together cover the composition: the
// first range begins at beat 1 and the last one ends exactly at totalBeats.
// The last range is considered closed at totalBeats, see Resolution.At.
func IsContiguousSequence(ranges []BeatRange, totalBeats int) bool {
	return CoverageGap(ranges, totalBeats) == ""
}

// CoverageGap describes why the ranges are not a contiguous sequence over
// totalBeats, or returns "" if they are.
func CoverageGap(ranges []BeatRange, totalBeats int) string {
	if len(ranges) == 0 {
		return "no beat ranges given"
	}
	sorted := SortBeatRanges(ranges)
	if sorted[0].Begin != 1 {
		return fmt.Sprintf("first range %v does not begin at beat 1", sorted[0])
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Begin > prev.End {
			return fmt.Sprintf("gap between %v and %v: beats %d-%d are not covered", prev, cur, prev.End, cur.Begin)
		}
		if cur.Begin < prev.End {
			return fmt.Sprintf("ranges %v and %v overlap", prev, cur)
		}
	}
	if last := sorted[len(sorted)-1]; last.End != totalBeats {
		return fmt.Sprintf("last range %v does not end at beat %d", last, totalBeats)
	}
	return ""
}

// Subsequence returns, sorted by Begin, every range clipped to [begin, end).
// Ranges fully outside are dropped.
func Subsequence(ranges []BeatRange, begin, end int) []BeatRange {
	var ret []BeatRange
	for _, r := range SortBeatRanges(ranges) {
		b, e := max(r.Begin, begin), min(r.End, end)
		if b >= e {
			continue
		}
		ret = append(ret, BeatRange{Begin: b, End: e})
	}
	return ret
}
