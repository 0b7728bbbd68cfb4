package core

import "testing"

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment(data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewPageSourceAttachment(t *testing.T) {
	attachment := NewPageSourceAttachment("<html></html>")

	if attachment.Name != AttachmentPageSource {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentPageSource)
	}
	if attachment.ContentType != ContentTypeHTML {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypeHTML)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		ContentTypePNG:  "png",
		ContentTypeJSON: "json",
		ContentTypeHTML: "html",
		ContentTypeMP4:  "mp4",
		ContentTypeText: "txt",
		"":              "txt",
	}
	for ct, want := range tests {
		if got := ExtensionFor(ct); got != want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestDefaultArtifactConfig(t *testing.T) {
	cfg := DefaultArtifactConfig()

	if !cfg.CaptureOnFailure {
		t.Error("CaptureOnFailure should be true by default")
	}
	if !cfg.CaptureOnSuccess {
		t.Error("CaptureOnSuccess should be true by default")
	}
	if !cfg.Screenshot || !cfg.PageSource || !cfg.BrowserLogs {
		t.Error("Screenshot, PageSource and BrowserLogs should be on by default")
	}
	if cfg.Video {
		t.Error("Video should be false by default")
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := ArtifactConfig{CaptureOnFailure: true, CaptureOnSuccess: false}

	tests := []struct {
		status   StepStatus
		expected bool
	}{
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusPassed, false},
		{StatusWarned, false},
		{StatusSkipped, false},
		{StatusPending, false},
	}

	for _, tt := range tests {
		if got := cfg.ShouldCapture(tt.status); got != tt.expected {
			t.Errorf("ShouldCapture(%s) = %v, want %v", tt.status, got, tt.expected)
		}
	}
}

func TestNullSink(t *testing.T) {
	var sink AttachmentSink = NullSink{}
	if err := sink.Attach("x", ContentTypeText, []byte("y")); err != nil {
		t.Errorf("Attach() = %v", err)
	}
}

func TestMemorySink(t *testing.T) {
	sink := &MemorySink{}
	body := []byte("log line")
	_ = sink.Attach(AttachmentBrowserLogs, ContentTypeText, body)
	body[0] = 'X'

	got, ok := sink.Find(AttachmentBrowserLogs)
	if !ok {
		t.Fatal("Find() did not find attachment")
	}
	if string(got.Body) != "log line" {
		t.Errorf("Body = %q, attachment should own its copy", got.Body)
	}
	if _, ok := sink.Find("missing"); ok {
		t.Error("Find() found a missing attachment")
	}
}
