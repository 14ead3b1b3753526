package main

import "testing"

func TestParseCutoffPair(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantX   int
		wantY   int
		wantErr bool
	}{
		{name: "simple", in: "512x256", wantX: 512, wantY: 256},
		{name: "square", in: "64x64", wantX: 64, wantY: 64},
		{name: "missing separator", in: "512", wantErr: true},
		{name: "non-numeric width", in: "axb", wantErr: true},
		{name: "non-numeric height", in: "512xb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := parseCutoffPair(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseCutoffPair(%q): expected an error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCutoffPair(%q): %v", tt.in, err)
			}
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("parseCutoffPair(%q) = (%d, %d), want (%d, %d)", tt.in, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}
