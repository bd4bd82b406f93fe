//go:build unix

package mapped

import (
	"os"
	"strings"
	"testing"
)

func TestSliceAfterTruncate(t *testing.T) {
	content := strings.Repeat("0123456789abcdef\n", 64*1024)
	path := writeTemp(t, content)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if got := string(src.Slice(0, 17)); got != content[:17] {
		t.Fatalf("expected %q, got %q", content[:17], got)
	}

	if err := os.Truncate(path, 10); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	whole := src.Slice(0, src.Len())
	if len(whole) > pageSize {
		t.Errorf("expected at most one readable page, got %d bytes", len(whole))
	}
	if len(whole) >= 10 && string(whole[:10]) != content[:10] {
		t.Errorf("expected surviving prefix %q, got %q", content[:10], whole[:10])
	}

	mid := src.Len() / 2
	if got := src.Slice(mid, mid+100); len(got) != 0 {
		t.Errorf("expected no bytes past the new end, got %d", len(got))
	}
	if src.Len() != int64(len(content)) {
		t.Errorf("expected Len to keep the open-time length, got %d", src.Len())
	}
}
