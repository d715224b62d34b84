package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{45 * time.Minute, "45 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{49 * time.Hour, "2 days ago"},
	}
	for _, c := range cases {
		if got := TimeAgo(now.Add(-c.ago), now); got != c.want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", c.ago, got, c.want)
		}
	}
}

func TestCleanList(t *testing.T) {
	got := CleanList([]string{" Own tools ", "", "   ", "Safety shoes"})
	want := []string{"Own tools", "Safety shoes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CleanList = %v, want %v", got, want)
	}
}

func TestCustomErrorMessage(t *testing.T) {
	err := NewValidationError("title is required")
	if err.Error() != "Validation failed: title is required" || err.Code != 400 {
		t.Fatalf("unexpected error %#v", err)
	}
}
