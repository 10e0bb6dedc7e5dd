package review

import "sort"

// stats accumulates the per-pass counters. Only keys that were actually
// touched during the pass show up in the log dump.
type stats map[string]int

func (s stats) inc(key string) {
	s[key]++
}

func (s stats) add(key string, n int) {
	s[key] += n
}

// log writes one debug line per counter, sorted by key for stable output.
func (s stats) log(logger Logger, number int) {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		logger.Debugf("PR#%d %16s: %d", number, key, s[key])
	}
}
