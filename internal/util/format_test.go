package util

import "testing"

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{
		1234.5:   "1234.50",
		0:        "0.00",
		-1.005:   "-1.01",
		12.345:   "12.35",
		100.0001: "100.00",
	}
	for in, want := range cases {
		if got := FormatValue(in); got != want {
			t.Fatalf("FormatValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatChange(t *testing.T) {
	cases := map[float64]string{
		0.21:  "+0.21%",
		0:     "+0.00%",
		-0.5:  "-0.50%",
		-12.3: "-12.30%",
	}
	for in, want := range cases {
		if got := FormatChange(in); got != want {
			t.Fatalf("FormatChange(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestChangeTone(t *testing.T) {
	if ChangeTone(1) != "positive" || ChangeTone(-1) != "negative" || ChangeTone(0) != "neutral" {
		t.Fatalf("unexpected tones")
	}
}

func TestFormatVolume(t *testing.T) {
	cases := map[float64]string{
		86300:   "86.3K",
		1000:    "1.0K",
		1250000: "1.3M",
		999:     "999",
		12.5:    "12.5",
	}
	for in, want := range cases {
		if got := FormatVolume(in); got != want {
			t.Fatalf("FormatVolume(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatSpread(t *testing.T) {
	if got := FormatSpread(-5); got != "5.00" {
		t.Fatalf("FormatSpread(-5) = %q", got)
	}
	if got := FormatSpreadChange(14.345); got != "+14" {
		t.Fatalf("FormatSpreadChange(14.345) = %q", got)
	}
	if got := FormatSpreadChange(-7); got != "-7" {
		t.Fatalf("FormatSpreadChange(-7) = %q", got)
	}
}

func TestPreviewURL(t *testing.T) {
	if got := PreviewURL(20262, ""); got != "http://localhost:20262/api/datasets" {
		t.Fatalf("unexpected url: %s", got)
	}
	if got := PreviewURL(8080, "abc"); got != "http://localhost:8080/api/datasets/abc/table" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestBrowserCommands(t *testing.T) {
	for _, goos := range []string{"darwin", "windows", "linux"} {
		if len(browserCommands(goos)) == 0 {
			t.Fatalf("no browser command for %s", goos)
		}
	}
}
