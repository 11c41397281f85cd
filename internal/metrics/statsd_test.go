package metrics

import "testing"

func TestFormatMetric(t *testing.T) {
	client := &StatsdClient{defaultTags: map[string]string{"host": "box"}}

	tests := []struct {
		name     string
		client   *StatsdClient
		metric   string
		tags     map[string]string
		expected string
	}{
		{"no tags", &StatsdClient{}, "event.command.start", nil, "event.command.start"},
		{"default tags", client, "event.lap.recorded", nil, "event.lap.recorded,host=box"},
		{"merged and sorted", client, "size.export.laps", map[string]string{"a": "1", "host": "other"}, "size.export.laps,a=1,host=other"},
		{"escaped", &StatsdClient{}, "a:b", map[string]string{"k": "v v"}, "a%3Ab,k=v+v"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.client.formatMetric(tc.metric, tc.tags); got != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, got)
			}
		})
	}
}
