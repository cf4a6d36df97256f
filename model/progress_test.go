package model

import "testing"

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		currentPage int
		totalPages  int
		expected    int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{3, -1, 0},
		{1, 20, 5},
		{10, 20, 50},
		{20, 20, 100},
		{25, 20, 100},
	}
	for _, tc := range tests {
		p := &ReadingProgress{CurrentPage: tc.currentPage, TotalPages: tc.totalPages}
		if got := p.ProgressPercentage(); got != tc.expected {
			t.Errorf("Expected %d%% for page %d of %d, got %d%%", tc.expected, tc.currentPage, tc.totalPages, got)
		}
	}
}
