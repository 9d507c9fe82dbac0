package scenario

// Scenario is the structured document that fully specifies one video:
// overlay texts, the cast of chatters and the ordered message records.
// It is produced upstream (chat scraper + LLM transformation) and is
// read-only input for the renderer.
type Scenario struct {
	// Name is the document basename without extension; the output
	// video is named after it. Set by Read, not part of the JSON.
	Name string `json:"-"`

	Descriptions Descriptions       `json:"descriptions"`
	Chatters     map[string]Chatter `json:"chatters"`
	Contents     []Message          `json:"contents"`
}

// Descriptions holds the persistent overlay sources. Empty fields
// suppress the corresponding overlay.
type Descriptions struct {
	Title     string `json:"title"`
	Watermark string `json:"watermark"`
	Link      string `json:"link"` // optional, rendered as a QR overlay
}

type Chatter struct {
	AvatarURL string `json:"avatarURL"`
}

// Message is one chat message in playback order.
type Message struct {
	Username    string      `json:"username"`
	Content     string      `json:"content"`
	Timestamp   string      `json:"timestamp"` // display string, opaque to rendering
	Attachments []Attachment `json:"attachments"`
	Sound       string      `json:"sound"`
	Effect      string      `json:"effect"`
	Animation   string      `json:"animation"`
	Duration    float64     `json:"duration"` // seconds, > 0 after ingestion
}

// Attachment media types after normalization.
const (
	MediaImage = "image"
	MediaGIF   = "gif"
)

type Attachment struct {
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
}

// Animation vocabulary. Unknown tags are normalized to AnimNone at
// ingestion; the renderer never sees anything outside this set.
const (
	AnimNone      = "none"
	AnimScaleFade = "scaleFade"
	AnimPop       = "pop"
	AnimSlideUp   = "slideUp"
)

// Attachment returns the first (and only consumed) attachment, or nil.
func (m *Message) Attachment() *Attachment {
	if len(m.Attachments) == 0 {
		return nil
	}
	return &m.Attachments[0]
}

// Animated reports whether the attachment should be decoded as an
// animated clip rather than a still image.
func (a *Attachment) Animated() bool {
	return a.MediaType == MediaGIF
}
