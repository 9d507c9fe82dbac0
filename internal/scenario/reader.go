package scenario

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Scenario documents come out of an LLM and are only loosely typed:
// optional keys are simply absent, the attachment media type appears as
// either "media_type" (current prompt) or "content_type" (older
// documents), and numbers occasionally arrive as strings. gjson lets us
// read that shape tolerantly once, here; after Parse the rest of the
// pipeline only ever sees the typed schema with defaults applied.

// Read loads and validates a scenario document from a JSON file.
func Read(path string, defaultDuration float64) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	s, err := Parse(data, defaultDuration)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return s, nil
}

// Parse validates a scenario document and applies defaults. It is the
// single place where the loose upstream format is normalized.
func Parse(data []byte, defaultDuration float64) (*Scenario, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("top level must be an object")
	}
	if defaultDuration <= 0 {
		defaultDuration = 2.0
	}

	s := &Scenario{
		Descriptions: Descriptions{
			Title:     strings.TrimSpace(root.Get("descriptions.title").String()),
			Watermark: strings.TrimSpace(root.Get("descriptions.watermark").String()),
			Link:      strings.TrimSpace(root.Get("descriptions.link").String()),
		},
		Chatters: map[string]Chatter{},
	}

	root.Get("chatters").ForEach(func(key, value gjson.Result) bool {
		s.Chatters[key.String()] = Chatter{
			AvatarURL: value.Get("avatarURL").String(),
		}
		return true
	})

	for i, item := range root.Get("contents").Array() {
		msg, err := parseMessage(item, defaultDuration)
		if err != nil {
			return nil, fmt.Errorf("contents[%d]: %w", i, err)
		}
		s.Contents = append(s.Contents, msg)
	}

	return s, nil
}

func parseMessage(item gjson.Result, defaultDuration float64) (Message, error) {
	username := item.Get("username").String()
	if username == "" {
		return Message{}, fmt.Errorf("missing username")
	}

	msg := Message{
		Username:  username,
		Content:   item.Get("content").String(),
		Timestamp: item.Get("timestamp").String(),
		Sound:     item.Get("sound").String(),
		Effect:    item.Get("effect").String(),
		Animation: normalizeAnimation(item.Get("animation").String()),
	}

	// Number-or-string; gjson coerces both. Non-positive falls back.
	msg.Duration = item.Get("duration").Float()
	if msg.Duration <= 0 {
		msg.Duration = defaultDuration
	}

	// Only the first attachment is ever rendered.
	if atts := item.Get("attachments").Array(); len(atts) > 0 {
		att, err := parseAttachment(atts[0])
		if err != nil {
			return Message{}, err
		}
		msg.Attachments = []Attachment{att}
	}

	return msg, nil
}

func parseAttachment(item gjson.Result) (Attachment, error) {
	url := item.Get("url").String()
	if url == "" {
		return Attachment{}, fmt.Errorf("attachment without url")
	}

	mediaType := item.Get("media_type").String()
	if mediaType == "" {
		mediaType = item.Get("content_type").String()
	}
	return Attachment{URL: url, MediaType: normalizeMediaType(mediaType)}, nil
}

func normalizeMediaType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gif", "animation", "animated", "image/gif":
		return MediaGIF
	default:
		// Anything unrecognized is decoded as a still image.
		return MediaImage
	}
}

func normalizeAnimation(raw string) string {
	switch strings.TrimSpace(raw) {
	case AnimScaleFade, AnimPop, AnimSlideUp:
		return strings.TrimSpace(raw)
	case AnimNone, "":
		return AnimNone
	default:
		log.Printf("[!] Unknown animation tag %q, using %q", raw, AnimNone)
		return AnimNone
	}
}
