package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"50MB", 50 << 20, false},
		{"512kb", 512 << 10, false},
		{"2GB", 2 << 30, false},
		{"1024", 1024, false},
		{"10 MB", 10 << 20, false},
		{"100B", 100, false},
		{"", 0, true},
		{"lots", 0, true},
		{"-1MB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
	if ParseSizeOr("bad", 7) != 7 {
		t.Error("expected fallback")
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		50 << 20: "50MB",
		3 << 10:  "3KB",
		1536:     "1536B",
		1000:     "1000B",
	}
	for in, want := range tests {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestDeref(t *testing.T) {
	if Deref[int](nil, 300) != 300 {
		t.Error("expected fallback for nil")
	}
	if Deref(Ptr(5), 300) != 5 {
		t.Error("expected pointed value")
	}
}

func TestSanitizeText(t *testing.T) {
	in := "  fever\x00 and\tcough\nsince monday\x07  "
	want := "fever and\tcough\nsince monday"
	if got := SanitizeText(in); got != want {
		t.Errorf("SanitizeText = %q, want %q", got, want)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("sk-abcdef", 3); got != "sk-***" {
		t.Errorf("unexpected mask: %s", got)
	}
	if MaskSecret("ab", 3) != "***" {
		t.Error("short secrets are fully masked")
	}
	if MaskSecret("", 3) != "" {
		t.Error("empty stays empty")
	}
}
