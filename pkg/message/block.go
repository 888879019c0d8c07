package message

// AttachmentKind discriminates the media carried by an Attachment.
type AttachmentKind string

// Supported attachment kinds.
const (
	AttachmentImage AttachmentKind = "image"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentVideo AttachmentKind = "video"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is a media item attached to a history entry. Only its textual
// description reaches the prompt; the media itself never does.
type Attachment struct {
	Kind        AttachmentKind `json:"kind"`
	FileName    string         `json:"file_name,omitempty"`
	Description string         `json:"description,omitempty"`
	IsVoice     bool           `json:"is_voice,omitempty"`
}

// Label returns a short human label such as "image", "voice message" or
// "file report.pdf".
func (a Attachment) Label() string {
	kind := string(a.Kind)
	if kind == "" {
		kind = string(AttachmentFile)
	}
	if a.Kind == AttachmentAudio && a.IsVoice {
		kind = "voice message"
	}
	if a.FileName != "" {
		return kind + " " + a.FileName
	}
	return kind
}

// Reference is a message quoted or replied to by a history entry.
type Reference struct {
	AuthorName string `json:"author_name,omitempty"`
	Content    string `json:"content"`
}
