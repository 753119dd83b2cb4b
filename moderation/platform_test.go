package moderation

import (
	"context"
	"errors"
	"sync"
	"time"

	"group-moderator/model"
)

type sentMessage struct {
	Dest model.Destination
	Text string
}

type restriction struct {
	Perms model.Permissions
	Until time.Time
}

// fakePlatform records every platform call in memory.
type fakePlatform struct {
	mu           sync.Mutex
	chatType     model.ChatType
	chatTypeErr  error
	banErr       error
	directErr    error
	banned       map[int64]time.Time
	restrictions map[int64]restriction
	messages     []sentMessage
	calls        int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		chatType:     model.ChatTypeSupergroup,
		banned:       make(map[int64]time.Time),
		restrictions: make(map[int64]restriction),
	}
}

func (p *fakePlatform) ChatType(ctx context.Context) (model.ChatType, error) {
	return p.chatType, p.chatTypeErr
}

func (p *fakePlatform) Ban(ctx context.Context, accountID int64, until time.Time, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.banErr != nil {
		return p.banErr
	}
	p.banned[accountID] = until
	return nil
}

func (p *fakePlatform) Unban(ctx context.Context, accountID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	delete(p.banned, accountID)
	return nil
}

func (p *fakePlatform) Restrict(ctx context.Context, accountID int64, perms model.Permissions, until time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.restrictions[accountID] = restriction{Perms: perms, Until: until}
	return nil
}

func (p *fakePlatform) SendMessage(ctx context.Context, dest model.Destination, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dest != model.GroupChat && p.directErr != nil {
		return p.directErr
	}
	p.messages = append(p.messages, sentMessage{Dest: dest, Text: text})
	return nil
}

func (p *fakePlatform) isBanned(accountID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.banned[accountID]
	return ok
}

func (p *fakePlatform) messagesTo(dest model.Destination) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var texts []string
	for _, m := range p.messages {
		if m.Dest == dest {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

var errPlatformDown = errors.New("platform unavailable")
