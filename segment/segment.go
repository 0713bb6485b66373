// Package segment models chat messages as a sequence of typed segments, the
// wire-neutral message representation exchanged between the implementation
// and application sides. It is a thin data-description layer; platform
// adapters decide how segments map onto their native formats.
package segment

import (
	"fmt"
	"strings"
)

// Map carries the free-form extension fields a segment may include beyond its
// standard keys.
type Map = map[string]any

// Segment is one typed piece of a message.
type Segment struct {
	Type string `json:"type"`
	Data Map    `json:"data"`
}

// Message is an ordered sequence of segments.
type Message []Segment

// Alt renders a plain-text approximation of the message, used for the
// alt_message field of message events.
func (m Message) Alt() string {
	var b strings.Builder
	for _, seg := range m {
		switch seg.Type {
		case "text":
			if text, ok := seg.Data["text"].(string); ok {
				b.WriteString(text)
			}
		case "mention":
			if user, ok := seg.Data["user_id"].(string); ok {
				b.WriteString("@" + user)
			}
		case "mention_all":
			b.WriteString("@everyone")
		default:
			b.WriteString(fmt.Sprintf("[%s]", seg.Type))
		}
	}
	return b.String()
}

// Text appends a plain-text segment.
func (m Message) Text(text string) Message {
	return m.TextWith(text, nil)
}

// TextWith appends a plain-text segment with extension fields.
func (m Message) TextWith(text string, extend Map) Message {
	return append(m, build("text", Map{"text": text}, extend))
}

// Mention appends a mention of one user.
func (m Message) Mention(userID string) Message {
	return m.MentionWith(userID, nil)
}

func (m Message) MentionWith(userID string, extend Map) Message {
	return append(m, build("mention", Map{"user_id": userID}, extend))
}

// MentionAll appends a mention of everyone in the conversation.
func (m Message) MentionAll() Message {
	return append(m, build("mention_all", Map{}, nil))
}

// Image appends an image segment referencing an uploaded file.
func (m Message) Image(fileID string) Message {
	return m.ImageWith(fileID, nil)
}

func (m Message) ImageWith(fileID string, extend Map) Message {
	return append(m, build("image", Map{"file_id": fileID}, extend))
}

// Voice appends a voice segment.
func (m Message) Voice(fileID string) Message {
	return append(m, build("voice", Map{"file_id": fileID}, nil))
}

// Audio appends an audio segment.
func (m Message) Audio(fileID string) Message {
	return append(m, build("audio", Map{"file_id": fileID}, nil))
}

// Video appends a video segment.
func (m Message) Video(fileID string) Message {
	return append(m, build("video", Map{"file_id": fileID}, nil))
}

// File appends a file segment.
func (m Message) File(fileID string) Message {
	return append(m, build("file", Map{"file_id": fileID}, nil))
}

// Location appends a geographic location segment.
func (m Message) Location(latitude, longitude float64, title, content string) Message {
	return append(m, build("location", Map{
		"latitude":  latitude,
		"longitude": longitude,
		"title":     title,
		"content":   content,
	}, nil))
}

// Reply appends a reply reference to an earlier message.
func (m Message) Reply(messageID, userID string) Message {
	return append(m, build("reply", Map{"message_id": messageID, "user_id": userID}, nil))
}

// Custom appends a platform-specific segment.
func (m Message) Custom(segType string, data Map) Message {
	return append(m, Segment{Type: segType, Data: data})
}

// New starts an empty message for builder-style chaining.
func New() Message {
	return Message{}
}

// Text returns a single-segment plain-text message, the most common case.
func Text(text string) Message {
	return New().Text(text)
}

func build(segType string, data, extend Map) Segment {
	for key, value := range extend {
		data[key] = value
	}
	return Segment{Type: segType, Data: data}
}
