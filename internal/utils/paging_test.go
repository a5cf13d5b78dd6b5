package utils

import (
	"errors"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name       string
		limit      string
		offset     string
		wantLimit  int
		wantOffset int
		wantField  string
	}{
		{name: "defaults", wantLimit: DefaultLimit},
		{name: "explicit", limit: "5", offset: "10", wantLimit: 5, wantOffset: 10},
		{name: "limit too big", limit: "101", wantField: "limit"},
		{name: "limit zero", limit: "0", wantField: "limit"},
		{name: "limit not a number", limit: "ten", wantField: "limit"},
		{name: "negative offset", offset: "-1", wantField: "offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := ParsePage(tt.limit, tt.offset)

			if tt.wantField != "" {
				var pe *PageError
				if !errors.As(err, &pe) || pe.Field != tt.wantField {
					t.Fatalf("expected PageError on %s, got %v", tt.wantField, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Fatalf("got limit=%d offset=%d, want %d %d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
