package core

// Attachment represents a debug artifact captured for a scenario or step
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: Screenshot, Page Source, Browser Logs
	ContentType string `json:"contentType"` // MIME type: image/png, text/html, text/plain
	Path        string `json:"path"`        // File path relative to results directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot  = "Screenshot"
	AttachmentPageSource  = "Page Source"
	AttachmentBrowserLogs = "Browser Logs"
	AttachmentVideo       = "Video"
	AttachmentRequest     = "Request"
	AttachmentResponse    = "Response"
	AttachmentCurl        = "Curl"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
	ContentTypeHTML = "text/html"
	ContentTypeMP4  = "video/mp4"
)

// ExtensionFor returns the file extension used when an attachment body is
// written to disk.
func ExtensionFor(contentType string) string {
	switch contentType {
	case ContentTypePNG:
		return "png"
	case ContentTypeJSON:
		return "json"
	case ContentTypeHTML:
		return "html"
	case ContentTypeMP4:
		return "mp4"
	default:
		return "txt"
	}
}

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(data []byte) Attachment {
	return Attachment{Name: AttachmentScreenshot, ContentType: ContentTypePNG, Body: data}
}

// NewPageSourceAttachment creates a page source attachment
func NewPageSourceAttachment(html string) Attachment {
	return Attachment{Name: AttachmentPageSource, ContentType: ContentTypeHTML, Body: []byte(html)}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	// When to capture
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: true

	// What to capture
	Screenshot  bool `yaml:"screenshot" json:"screenshot"`   // Default: true
	PageSource  bool `yaml:"pageSource" json:"pageSource"`   // Default: true
	BrowserLogs bool `yaml:"browserLogs" json:"browserLogs"` // Default: true
	Video       bool `yaml:"video" json:"video"`             // Default: false, needs a Selenoid video recorder

	// VideoURL is the base of the recorder, e.g. https://selenoid.example/video/
	VideoURL string `yaml:"videoUrl" json:"videoUrl"`
}

// DefaultArtifactConfig returns the defaults: every scenario ends with a
// screenshot, page source and browser logs.
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: true,
		Screenshot:       true,
		PageSource:       true,
		BrowserLogs:      true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed, StatusWarned:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// AttachmentSink receives named artifacts. The Allure test case implements it.
type AttachmentSink interface {
	Attach(name, contentType string, body []byte) error
}

// NullSink discards attachments.
type NullSink struct{}

// Attach implements AttachmentSink.
func (NullSink) Attach(string, string, []byte) error { return nil }

// MemorySink keeps attachments in memory, in order. Not safe for concurrent use.
type MemorySink struct {
	Items []Attachment
}

// Attach implements AttachmentSink.
func (m *MemorySink) Attach(name, contentType string, body []byte) error {
	b := make([]byte, len(body))
	copy(b, body)
	m.Items = append(m.Items, Attachment{Name: name, ContentType: contentType, Body: b})
	return nil
}

// Find returns the first attachment with the given name.
func (m *MemorySink) Find(name string) (Attachment, bool) {
	for _, a := range m.Items {
		if a.Name == name {
			return a, true
		}
	}
	return Attachment{}, false
}
