package webapp

import (
	"testing"
)

// TestGetDatabaseDisplay tests the database type display conversion
func TestGetDatabaseDisplay(t *testing.T) {
	tests := []struct {
		name     string
		dbType   string
		expected string
	}{
		{
			name:     "SQLite",
			dbType:   "sqlite",
			expected: "SQLite",
		},
		{
			name:     "Unknown type",
			dbType:   "mongodb",
			expected: "mongodb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{
				aboutInfo: AboutInfo{
					DatabaseType: tt.dbType,
				},
			}
			got := page.getDatabaseDisplay()
			if got != tt.expected {
				t.Errorf("getDatabaseDisplay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestGetRendererDisplay tests the renderer display conversion
func TestGetRendererDisplay(t *testing.T) {
	tests := []struct {
		name     string
		renderer string
		expected string
	}{
		{
			name:     "PDFium",
			renderer: "pdfium",
			expected: "PDFium",
		},
		{
			name:     "Fitz",
			renderer: "fitz",
			expected: "MuPDF (fitz)",
		},
		{
			name:     "Unknown renderer",
			renderer: "poppler",
			expected: "poppler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{
				aboutInfo: AboutInfo{
					Renderer: tt.renderer,
				},
			}
			got := page.getRendererDisplay()
			if got != tt.expected {
				t.Errorf("getRendererDisplay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestToolStatus tests tool availability rendering
func TestToolStatus(t *testing.T) {
	if got := toolStatus(true); got != "Available" {
		t.Errorf("toolStatus(true) = %v, want Available", got)
	}
	if got := toolStatus(false); got != "Missing" {
		t.Errorf("toolStatus(false) = %v, want Missing", got)
	}
}

// TestSortedToolNames tests that tool names come back in a stable order
func TestSortedToolNames(t *testing.T) {
	page := &AboutPage{
		aboutInfo: AboutInfo{
			Tools: map[string]bool{
				"tesseract":   true,
				"ghostscript": false,
				"qpdf":        true,
			},
		},
	}
	names := page.sortedToolNames()
	want := []string{"ghostscript", "qpdf", "tesseract"}
	if len(names) != len(want) {
		t.Fatalf("sortedToolNames() returned %d names, want %d", len(names), len(want))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("sortedToolNames()[%d] = %v, want %v", i, names[i], name)
		}
	}
}

// TestAboutPageRenderStates tests that different states produce valid UI
func TestAboutPageRenderStates(t *testing.T) {
	t.Run("Loading state returns valid UI", func(t *testing.T) {
		page := &AboutPage{
			loading: true,
		}
		ui := page.Render()

		if ui == nil {
			t.Error("Loading state should return non-nil UI")
		}
	})

	t.Run("Error state returns valid UI", func(t *testing.T) {
		page := &AboutPage{
			loading: false,
			error:   "Network error",
		}
		ui := page.Render()

		if ui == nil {
			t.Error("Error state should return non-nil UI")
		}
	})

	t.Run("Success state returns valid UI", func(t *testing.T) {
		page := &AboutPage{
			loading: false,
			error:   "",
			aboutInfo: AboutInfo{
				Version:      "v1.2.3",
				Renderer:     "pdfium",
				DatabaseType: "sqlite",
				UploadPath:   "/scratch/uploads",
				OutputPath:   "/scratch/outputs",
				MaxUploadMB:  50,
				Tools:        map[string]bool{"tesseract": true},
			},
		}
		ui := page.Render()

		if ui == nil {
			t.Error("Success state should return non-nil UI")
		}
	})
}

// TestAboutInfoStruct tests the AboutInfo struct
func TestAboutInfoStruct(t *testing.T) {
	info := AboutInfo{
		Version:      "v2.0.0",
		Renderer:     "fitz",
		DatabaseType: "sqlite",
		DatabaseName: "databases/gopdftools.sqlite",
		UploadPath:   "/srv/scratch/uploads",
		OutputPath:   "/srv/scratch/outputs",
		MaxUploadMB:  100,
		Tools:        map[string]bool{"ghostscript": true, "qpdf": false},
	}

	if info.Version != "v2.0.0" {
		t.Errorf("Version = %v, want v2.0.0", info.Version)
	}
	if info.Renderer != "fitz" {
		t.Errorf("Renderer = %v, want fitz", info.Renderer)
	}
	if info.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %v, want sqlite", info.DatabaseType)
	}
	if info.MaxUploadMB != 100 {
		t.Errorf("MaxUploadMB = %v, want 100", info.MaxUploadMB)
	}
	if !info.Tools["ghostscript"] {
		t.Error("ghostscript should read as available")
	}
	if info.Tools["qpdf"] {
		t.Error("qpdf should read as missing")
	}
}
