package dedup

import (
	"reflect"
	"testing"
)

func TestMessageGrouping(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		newLines  []int
		visible   []int
		groups    [][2]int
		want      []Entry
	}{
		{
			name:      "no lines",
			threshold: 2,
			want:      nil,
		},
		{
			name:      "single occurrence",
			threshold: 2,
			newLines:  []int{16},
			want:      []Entry{{Line: 16, Text: "M"}},
		},
		{
			name:      "consecutive lines collapse",
			threshold: 2,
			newLines:  []int{1, 2, 3},
			want:      []Entry{{Line: 1, Text: "M <sub>3x spanning 3 lines</sub>"}},
		},
		{
			name:      "gaps within threshold share a group",
			threshold: 2,
			newLines:  []int{1, 3, 5},
			want:      []Entry{{Line: 1, Text: "M <sub>3x spanning 5 lines</sub>"}},
		},
		{
			name:      "gaps beyond threshold stay singletons",
			threshold: 2,
			newLines:  []int{1, 4, 100, 105},
			want: []Entry{
				{Line: 1, Text: "M"},
				{Line: 4, Text: "M"},
				{Line: 100, Text: "M"},
				{Line: 105, Text: "M"},
			},
		},
		{
			name:      "gap equal to threshold does not split",
			threshold: 3,
			newLines:  []int{1, 4},
			want:      []Entry{{Line: 1, Text: "M <sub>2x spanning 4 lines</sub>"}},
		},
		{
			name:      "gap one past threshold splits",
			threshold: 3,
			newLines:  []int{1, 5},
			want: []Entry{
				{Line: 1, Text: "M"},
				{Line: 5, Text: "M"},
			},
		},
		{
			name:      "previously posted group suppressed",
			threshold: 2,
			newLines:  []int{1, 3, 5},
			groups:    [][2]int{{1, 3}},
			want:      nil,
		},
		{
			name:      "posted group with different count still emits",
			threshold: 2,
			newLines:  []int{1, 3, 5},
			groups:    [][2]int{{1, 2}},
			want:      []Entry{{Line: 1, Text: "M <sub>3x spanning 5 lines</sub>"}},
		},
		{
			name:      "suppressed group leaves later singleton alone",
			threshold: 2,
			newLines:  []int{1, 3, 10},
			groups:    [][2]int{{1, 2}},
			want:      []Entry{{Line: 10, Text: "M"}},
		},
		{
			name:      "visible lines are inert",
			threshold: 2,
			newLines:  []int{1, 4, 100, 105},
			visible:   []int{2, 4, 101, 106},
			want: []Entry{
				{Line: 1, Text: "M"},
				{Line: 100, Text: "M"},
				{Line: 105, Text: "M"},
			},
		},
		{
			name:      "all lines visible",
			threshold: 2,
			visible:   []int{1, 2, 3},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMessage("M", tt.threshold)
			for _, line := range tt.newLines {
				m.Track(line, false)
			}
			for _, line := range tt.visible {
				m.Track(line, true)
			}
			for _, g := range tt.groups {
				m.TrackGroup(g[0], g[1])
			}

			got := m.Messages()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Messages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageVisibilitySticky(t *testing.T) {
	m := NewMessage("M", 2)
	m.Track(5, true)
	m.Track(5, false)

	if got := m.Messages(); got != nil {
		t.Errorf("Messages() = %v, want nil: visibility must survive re-tracking", got)
	}
}

func TestMessageInsertionOrderIrrelevant(t *testing.T) {
	forward := NewMessage("M", 2)
	for _, line := range []int{1, 3, 5, 100} {
		forward.Track(line, false)
	}

	backward := NewMessage("M", 2)
	for _, line := range []int{100, 5, 3, 1} {
		backward.Track(line, false)
	}

	if !reflect.DeepEqual(forward.Messages(), backward.Messages()) {
		t.Error("Messages() depends on insertion order")
	}
}
