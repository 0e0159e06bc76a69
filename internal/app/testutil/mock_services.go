package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"vm-transcriber/internal/app/audio"
	"vm-transcriber/internal/app/pipeline"
)

// FakeReplier records replies and edits in memory. Reply links follow the
// chat jump URL layout so tests can assert on them.
type FakeReplier struct {
	mu      sync.Mutex
	next    int
	Replies []SentReply
	Edits   map[string][]string // reply message id -> edit history

	ReplyErr error
	EditErr  error
}

// SentReply is one Reply call.
type SentReply struct {
	Source  pipeline.Message
	Content string
	Reply   pipeline.Reply
}

var _ pipeline.Replier = (*FakeReplier)(nil)

func NewFakeReplier() *FakeReplier {
	return &FakeReplier{next: 9000, Edits: make(map[string][]string)}
}

func (r *FakeReplier) Reply(_ context.Context, source pipeline.Message, content string) (pipeline.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReplyErr != nil {
		return pipeline.Reply{}, r.ReplyErr
	}
	r.next++
	id := fmt.Sprint(r.next)
	reply := pipeline.Reply{
		ChannelID: source.ChannelID,
		MessageID: id,
		Link:      fmt.Sprintf("https://discord.com/channels/%s/%s/%s", source.GuildID, source.ChannelID, id),
	}
	r.Replies = append(r.Replies, SentReply{Source: source, Content: content, Reply: reply})
	return reply, nil
}

func (r *FakeReplier) Edit(_ context.Context, reply pipeline.Reply, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.EditErr != nil {
		return r.EditErr
	}
	r.Edits[reply.MessageID] = append(r.Edits[reply.MessageID], content)
	return nil
}

// ReplyCount returns the number of replies posted.
func (r *FakeReplier) ReplyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Replies)
}

// LastReply returns the most recent reply, or a zero value.
func (r *FakeReplier) LastReply() SentReply {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Replies) == 0 {
		return SentReply{}
	}
	return r.Replies[len(r.Replies)-1]
}

// FinalContent returns the body a reply ended up with after all edits.
func (r *FakeReplier) FinalContent(reply pipeline.Reply) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if edits := r.Edits[reply.MessageID]; len(edits) > 0 {
		return edits[len(edits)-1]
	}
	for _, sent := range r.Replies {
		if sent.Reply.MessageID == reply.MessageID {
			return sent.Content
		}
	}
	return ""
}

// FakeFetcher serves attachment bytes keyed by URL.
type FakeFetcher struct {
	mu    sync.Mutex
	Files map[string][]byte
	Err   error
	Calls int
}

var _ pipeline.Fetcher = (*FakeFetcher)(nil)

func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{Files: make(map[string][]byte)}
}

// With registers data under url.
func (f *FakeFetcher) With(url string, data []byte) *FakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Files[url] = data
	return f
}

func (f *FakeFetcher) Fetch(_ context.Context, attachment pipeline.Attachment) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	data, ok := f.Files[attachment.URL]
	if !ok {
		return nil, fmt.Errorf("GET %s: 404 Not Found", attachment.URL)
	}
	return data, nil
}

// MockConverter is a testify mock of pipeline.Converter.
type MockConverter struct {
	mock.Mock
}

var _ pipeline.Converter = (*MockConverter)(nil)

func NewMockConverter(t *testing.T) *MockConverter {
	m := &MockConverter{}
	m.Test(t)
	return m
}

func (m *MockConverter) Convert(ctx context.Context, data []byte) (*audio.Clip, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audio.Clip), args.Error(1)
}
