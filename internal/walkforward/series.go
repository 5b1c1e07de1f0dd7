package walkforward

import (
	"sort"
	"time"
)

// Split selects the train or test segment of a window.
type Split int

const (
	SplitTrain Split = iota
	SplitTest
)

// String returns "train" or "test".
func (s Split) String() string {
	if s == SplitTest {
		return "test"
	}
	return "train"
}

// Timestamped is any observation carrying its own timestamp. The source
// series must be strictly ascending with unique timestamps; that ordering is
// a caller precondition, not something this package verifies.
type Timestamped interface {
	Time() time.Time
}

// SliceSeries returns the observations of series whose timestamps fall inside
// the window's [start, end) segment for the given split. The result is a
// sub-slice of series, never a copy: the source is not mutated or reordered.
// An empty range yields nil.
func SliceSeries[T Timestamped](series []T, w Window, split Split) []T {
	start, end := w.Bounds(split)

	lo := sort.Search(len(series), func(i int) bool {
		return !series[i].Time().Before(start)
	})
	hi := sort.Search(len(series), func(i int) bool {
		return !series[i].Time().Before(end)
	})

	if lo >= hi {
		return nil
	}
	return series[lo:hi]
}
