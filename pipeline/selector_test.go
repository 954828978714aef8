package pipeline

import (
	"testing"
)

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pdf", "pdf"},
		{".pdf", "pdf"},
		{"PDF", "pdf"},
		{" docx ", "docx"},
		{"jpeg", "jpg"},
		{"JPEG", "jpg"},
		{".jpe", "jpg"},
		{"tif", "tiff"},
		{"htm", "html"},
		{"text", "txt"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.in); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveSourceTypePrefersHint(t *testing.T) {
	tests := []struct {
		name     string
		hint     string
		filename string
		want     string
	}{
		{"hint wins over extension", "docx", "scan.pdf", "docx"},
		{"hint is normalized", "JPEG", "photo.bin", "jpg"},
		{"extension fallback", "", "report.PDF", "pdf"},
		{"extension alias folded", "", "photo.jpeg", "jpg"},
		{"blank hint falls back", "  ", "notes.txt", "txt"},
		{"no extension no hint", "", "README", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveSourceType(tt.hint, tt.filename); got != tt.want {
				t.Errorf("resolveSourceType(%q, %q) = %q, want %q", tt.hint, tt.filename, got, tt.want)
			}
		})
	}
}

func TestCapabilityTableEntries(t *testing.T) {
	present := []conversionKey{
		{"docx", "pdf"},
		{"odt", "pdf"},
		{"xlsx", "pdf"},
		{"jpg", "pdf"},
		{"png", "pdf"},
		{"tiff", "pdf"},
		{"html", "pdf"},
		{"pdf", "png"},
		{"pdf", "jpg"},
		{"pdf", "txt"},
	}
	for _, key := range present {
		if _, ok := capabilities[key]; !ok {
			t.Errorf("capability table is missing %s -> %s", key.From, key.To)
		}
	}

	absent := []conversionKey{
		{"pdf", "docx"},
		{"png", "jpg"},
		{"exe", "pdf"},
		{"pdf", "pdf"},
	}
	for _, key := range absent {
		if _, ok := capabilities[key]; ok {
			t.Errorf("capability table should not offer %s -> %s", key.From, key.To)
		}
	}
}

func TestCapabilitiesListing(t *testing.T) {
	list := Capabilities()
	if len(list) != len(capabilities) {
		t.Fatalf("Capabilities() lists %d pairs, table has %d", len(list), len(capabilities))
	}
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if prev.From > cur.From || (prev.From == cur.From && prev.To > cur.To) {
			t.Fatalf("Capabilities() is not sorted at index %d: %v before %v", i, prev, cur)
		}
	}
	for _, c := range list {
		if c.Via != "page-model" && c.Via != "tool-chain" {
			t.Errorf("conversion %s -> %s has unknown via %q", c.From, c.To, c.Via)
		}
	}
}

func TestIsImageType(t *testing.T) {
	for _, imageType := range []string{"jpg", "png", "tiff", "gif"} {
		if !isImageType(imageType) {
			t.Errorf("isImageType(%q) = false, want true", imageType)
		}
	}
	for _, other := range []string{"pdf", "docx", "jpeg", ""} {
		if isImageType(other) {
			t.Errorf("isImageType(%q) = true, want false", other)
		}
	}
}
