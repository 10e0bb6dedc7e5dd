package review

import "time"

// debouncer suppresses repeated firings of one key within an interval.
// The watch loop reprocesses the same files on every push, so without it
// the "no lint handler" log line would repeat endlessly.
type debouncer struct {
	interval time.Duration
	now      func() time.Time
	fired    map[string]time.Time
}

func newDebouncer(interval time.Duration, now func() time.Time) *debouncer {
	if now == nil {
		now = time.Now
	}
	return &debouncer{
		interval: interval,
		now:      now,
		fired:    make(map[string]time.Time),
	}
}

// ready reports whether key may fire, recording the firing time when it
// does. A zero interval fires every time.
func (d *debouncer) ready(key string) bool {
	if last, ok := d.fired[key]; ok && d.now().Sub(last) < d.interval {
		return false
	}
	d.fired[key] = d.now()
	return true
}
