package engine

import (
	"errors"
	"testing"
)

func TestPrefixTokenParser(t *testing.T) {
	tests := []struct {
		raw          string
		marker       string
		wantName     string
		wantInverted bool
		wantErr      bool
	}{
		{raw: "eq", marker: "!", wantName: "eq"},
		{raw: "!eq", marker: "!", wantName: "eq", wantInverted: true},
		{raw: "  ! in-net ", marker: "!", wantName: "in-net", wantInverted: true},
		{raw: "!!eq", marker: "!", wantErr: true},
		{raw: "e!q", marker: "!", wantName: "e!q"},
		{raw: "!eq", marker: "", wantName: "!eq"},
		{raw: "~matches", marker: "~", wantName: "matches", wantInverted: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, inverted, err := PrefixTokenParser{Marker: tt.marker}.ParseOperatorToken(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrConditionCheckFailure) {
					t.Fatalf("expected ErrConditionCheckFailure, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.wantName || inverted != tt.wantInverted {
				t.Fatalf("got (%q, %v), want (%q, %v)", name, inverted, tt.wantName, tt.wantInverted)
			}
		})
	}
}
