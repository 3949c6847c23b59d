package runid

import "testing"

func TestCurrentIsStableAndNonEmpty(t *testing.T) {
	a := Current()
	b := Current()
	if a == "" {
		t.Fatalf("Current() returned empty string")
	}
	if a != b {
		t.Fatalf("Current() changed between calls: %q then %q", a, b)
	}
}
