package fantasybridge

import (
	"charm.land/fantasy"
	"github.com/dotcommander/modelkit/internal/proto"
)

var fantasyRoles = map[string]fantasy.MessageRole{
	proto.RoleSystem:    fantasy.MessageRoleSystem,
	proto.RoleUser:      fantasy.MessageRoleUser,
	proto.RoleAssistant: fantasy.MessageRoleAssistant,
}

// toFantasyPrompt converts messages, dropping unknown roles and empty
// assistant turns.
func toFantasyPrompt(input []proto.Message) fantasy.Prompt {
	messages := make([]fantasy.Message, 0, len(input))
	for _, msg := range input {
		role, ok := fantasyRoles[msg.Role]
		if !ok {
			continue
		}
		if role == fantasy.MessageRoleAssistant && msg.Content == "" {
			continue
		}
		messages = append(messages, fantasy.Message{
			Role:    role,
			Content: []fantasy.MessagePart{fantasy.TextPart{Text: msg.Content}},
		})
	}
	return messages
}
