// Package request defines the provider-independent Unified Request and
// Unified Response shapes (spec §3) that flow between the client facade
// and the manifest compiler / streaming pipeline.
package request

// Role is a message's sender role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// BlockKind distinguishes content block variants.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockImage      BlockKind = "image"
	BlockAudio      BlockKind = "audio"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// SourceKind is how an image/audio block's bytes are supplied.
type SourceKind string

const (
	SourceURL    SourceKind = "url"
	SourceBase64 SourceKind = "base64"
	SourceFile   SourceKind = "file"
)

// MediaSource locates the bytes of an image or audio content block.
type MediaSource struct {
	Kind      SourceKind
	Value     string // URL, base64 payload, or file reference, per Kind
	MediaType string
}

// ContentBlock is one ordered element of a message's content (§3). Exactly
// one of the typed fields is populated, selected by Kind.
type ContentBlock struct {
	Kind BlockKind

	Text string // BlockText

	Source MediaSource // BlockImage, BlockAudio

	ToolUseID   string      // BlockToolUse, BlockToolResult
	ToolName    string      // BlockToolUse
	ToolInput   interface{} // BlockToolUse

	ToolResultContent interface{} // BlockToolResult
	IsError           bool        // BlockToolResult
}

// Message is one ordered turn in the conversation.
type Message struct {
	Role Role

	// Content is either a single text string (Text != "", Blocks == nil) or
	// an ordered list of content blocks (§3: "Content is either plain text
	// or an ordered list of content blocks").
	Text   string
	Blocks []ContentBlock

	ToolCallID string // set on RoleTool messages
}

// IsBlocks reports whether this message's content is block-structured.
func (m Message) IsBlocks() bool { return len(m.Blocks) > 0 }

// Tool is a callable tool definition offered to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolChoice selects how the model must use tools.
type ToolChoice struct {
	Mode string // "auto" | "none" | "required" | "tool"
	Name string // set when Mode == "tool"
}

// ResponseFormat requests structured output.
type ResponseFormat struct {
	Type   string // "text" | "json_object" | "json_schema"
	Schema map[string]interface{}
}

// Unified is the caller's provider-independent input (§3 "Unified
// Request"). Model is "provider/model".
type Unified struct {
	Model    string
	Messages []Message

	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	Tools            []Tool
	ToolChoice       *ToolChoice
	Stream           bool
	ResponseFormat   *ResponseFormat
	Stop             []string
	Seed             *int
	PresencePenalty  *float64
	FrequencyPenalty *float64
}

// HasImages reports whether any message carries an image content block.
func (u Unified) HasImages() bool { return u.hasBlockKind(BlockImage) }

// HasAudio reports whether any message carries an audio content block.
func (u Unified) HasAudio() bool { return u.hasBlockKind(BlockAudio) }

func (u Unified) hasBlockKind(kind BlockKind) bool {
	for _, msg := range u.Messages {
		for _, b := range msg.Blocks {
			if b.Kind == kind {
				return true
			}
		}
	}
	return false
}

// ToolCall is one tool invocation extracted from a response or stream.
type ToolCall struct {
	ID        string
	Name      string
	Arguments interface{}
}

// Usage is the standard, unified token-accounting shape (§3).
type Usage struct {
	PromptTokens     *int64
	CompletionTokens *int64
	TotalTokens      *int64
	CachedTokens     *int64
}

// Response is the Unified Response produced for a non-streaming call
// (§3 "Unified Response").
type Response struct {
	Content        string
	ToolCalls      []ToolCall
	Usage          *Usage
	FinishReason   string
	RawStandardCode string
}
