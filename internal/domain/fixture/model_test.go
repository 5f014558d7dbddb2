package fixture

import "testing"

func TestAllTerminal(t *testing.T) {
	t.Parallel()

	fixtures := []Fixture{
		{ID: "f1", Status: "FT"},
		{ID: "f2", Status: StatusPostponed},
		{ID: "f3", Status: StatusLive},
	}

	cases := []struct {
		name string
		ids  []string
		want bool
	}{
		{name: "finished and postponed", ids: []string{"f1", "f2"}, want: true},
		{name: "one live", ids: []string{"f1", "f3"}, want: false},
		{name: "unknown fixture", ids: []string{"f1", "f9"}, want: false},
		{name: "no fixtures", ids: nil, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := AllTerminal(tc.ids, fixtures); got != tc.want {
				t.Fatalf("AllTerminal(%v) = %v, want %v", tc.ids, got, tc.want)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	if got := NormalizeStatus(" ft "); got != "FT" {
		t.Fatalf("unexpected normalized status %q", got)
	}
	if got := NormalizeStatus(""); got != StatusScheduled {
		t.Fatalf("empty status should default to scheduled, got %q", got)
	}
	if !IsTerminalStatus("aet") || IsTerminalStatus("HT") {
		t.Fatalf("terminal status detection is wrong")
	}
}
