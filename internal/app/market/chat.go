package market

import (
	"context"

	"gardentrade/internal/app/conversation"
	"gardentrade/internal/pkg/errs"
)

// OpenConversation loads and shows the chat of tradeID. A load overtaken by a
// newer one fails with errs.ErrRequestSuperseded and does not change which
// chat is open.
func (v *View) OpenConversation(ctx context.Context, tradeID string) (conversation.Conversation, error) {
	viewer, err := v.username()
	if err != nil {
		return conversation.Conversation{}, err
	}

	reqCtx, ticket := v.requests.Begin(ctx, conversationKey)
	conv, err := v.chat.Load(reqCtx, viewer, tradeID)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !ticket.Done() {
		return conversation.Conversation{}, errs.NewError(errs.ErrRequestSuperseded)
	}
	if err != nil {
		return conversation.Conversation{}, err
	}

	v.chat.Show(conv)
	return conv, nil
}

// SendMessage appends body to the conversation of tradeID as the signed-in user.
func (v *View) SendMessage(ctx context.Context, tradeID, body string) (conversation.Message, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	sender, err := v.requireAuth()
	if err != nil {
		return conversation.Message{}, err
	}

	return v.chat.Send(ctx, sender, tradeID, body)
}

// SendInput sends the composer input of the open chat.
func (v *View) SendInput(ctx context.Context) (conversation.Message, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	sender, err := v.requireAuth()
	if err != nil {
		return conversation.Message{}, err
	}

	return v.chat.SendInput(ctx, sender)
}

// SetMessageInput replaces the composer input of the open chat, which must be
// tradeID.
func (v *View) SetMessageInput(tradeID, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.requireAuth(); err != nil {
		return err
	}

	if open := v.chat.OpenTradeID(); open == "" || open != tradeID {
		return errs.NewError(errs.ErrNoOpenConversation)
	}

	v.chat.SetInput(text)
	return nil
}

// CloseConversation hides the chat. Its history is kept.
func (v *View) CloseConversation() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.requireAuth(); err != nil {
		return err
	}

	v.chat.Close()
	return nil
}
