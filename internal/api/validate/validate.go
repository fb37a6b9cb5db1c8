package validate

import (
	"fmt"
	"regexp"
)

// titleRx allows letters, digits, single spaces, hyphen and apostrophe.
var titleRx = regexp.MustCompile(`^[A-Za-z0-9' \-]+$`)

// Title validates a conversation or example title:
// - 1-80 bytes
// - letters/digits/space/hyphen/apostrophe only
// Returns an error describing the first violated rule.
func Title(v string) error {
	if v == "" {
		return fmt.Errorf("title is required")
	}
	if len(v) > 80 {
		return fmt.Errorf("title exceeds 80 characters")
	}
	if !titleRx.MatchString(v) {
		return fmt.Errorf("title contains invalid characters; allowed letters, digits, space, hyphen, apostrophe")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// Role restricts message roles to the three the replay engine understands.
func Role(v string) error {
	switch v {
	case "user", "assistant", "system":
		return nil
	}
	return fmt.Errorf("role must be user, assistant or system")
}

// ToolKind restricts tool-call recording to the known side-effect logs.
func ToolKind(v string) error {
	switch v {
	case "find_providers", "search_addresses", "get_provider_info":
		return nil
	}
	return fmt.Errorf("kind must be find_providers, search_addresses or get_provider_info")
}

// -------- Request specific helpers ----------

// CreateConversation validates input for opening a conversation.
func CreateConversation(title string) error {
	return Title(title)
}

// AppendMessage validates input for appending one message.
func AppendMessage(role, content string) error {
	if err := Role(role); err != nil {
		return err
	}
	if err := NonEmpty("content", content); err != nil {
		return err
	}
	if len(content) > 16000 {
		return fmt.Errorf("content exceeds 16000 characters")
	}
	return nil
}

// SaveExample validates input for publishing a replay as an example.
func SaveExample(title string, description *string) error {
	if err := Title(title); err != nil {
		return err
	}
	return MaxLen("description", description, 500)
}
