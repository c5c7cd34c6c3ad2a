package ingest

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head><body>
		<h1>2026학년도 1학기 수강신청 안내</h1>
		<script>alert("x")</script>
		<p>수강신청 기간: 2026-02-10 ~ 2026-02-14</p>
		<img src="/notice/table.png" alt="시간표">
	</body></html>`

	text, err := ExtractText(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, "수강신청 안내") {
		t.Errorf("heading text missing from %q", text)
	}
	if !strings.Contains(text, "2026-02-10") {
		t.Errorf("paragraph text missing from %q", text)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color:red") {
		t.Errorf("script/style content must be stripped, got %q", text)
	}
}

func TestImageSources(t *testing.T) {
	html := `<body>
		<img src="/a.png">
		<img src="  /b.jpg  ">
		<img alt="no source">
		<img src="">
		<img src="/c.gif">
	</body>`

	sources, err := ImageSources(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/a.png", "/b.jpg", "/c.gif"}
	if !reflect.DeepEqual(sources, want) {
		t.Errorf("sources = %v, want %v", sources, want)
	}
}

func TestImageSourcesNone(t *testing.T) {
	sources, err := ImageSources("<p>텍스트만</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("expected no sources, got %v", sources)
	}
}
