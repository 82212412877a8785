package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"memoryshare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type stubSender struct {
	err  error
	sent []*gomail.Message
}

func (s *stubSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m...)
	return nil
}

func TestDispatchReturnsMessageIDOnSuccess(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcherWithSender(sender, "noreply@example.com", "Memoryshare")

	result := d.Dispatch(context.Background(), Message{
		To:      []string{"family@example.com"},
		Subject: "New memory: Beach Day",
		HTML:    "<p>hello</p>",
	})

	require.True(t, result.Delivered())
	assert.NoError(t, result.Err)
	assert.Contains(t, result.MessageID, "@example.com>")
	require.Len(t, sender.sent, 1)

	var buf bytes.Buffer
	_, err := sender.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "To: family@example.com")
	assert.Contains(t, raw, "Subject: New memory: Beach Day")
	assert.Contains(t, raw, result.MessageID)
}

func TestDispatchReportsFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("550 rejected")}
	d := NewDispatcherWithSender(sender, "noreply@example.com", "")

	result := d.Dispatch(context.Background(), Message{
		To:      []string{"family@example.com"},
		Subject: "New memory",
		HTML:    "<p>hello</p>",
	})

	assert.False(t, result.Delivered())
	assert.ErrorContains(t, result.Err, "550")
	assert.Empty(t, result.MessageID)
}

func TestDispatchUsesExplicitFromAddress(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcherWithSender(sender, "noreply@example.com", "Memoryshare")

	result := d.Dispatch(context.Background(), Message{
		To:      []string{"family@example.com"},
		From:    "uploads@photos.example.org",
		Subject: "New memory",
		HTML:    "<p>hello</p>",
	})

	require.True(t, result.Delivered())
	assert.Contains(t, result.MessageID, "@photos.example.org>")

	var buf bytes.Buffer
	sender.sent[0].WriteTo(&buf)
	assert.Contains(t, buf.String(), "From: uploads@photos.example.org")
}

func TestNotificationBodyRendersMemory(t *testing.T) {
	memory := &models.Memory{
		Title:       "Beach <Day>",
		Description: "Sunny afternoon",
		UploadDate:  time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"Beach", "Family"},
	}

	body, err := NotificationBody(memory)
	require.NoError(t, err)

	// Title is escaped, not injected
	assert.Contains(t, body, "Beach &lt;Day&gt;")
	assert.Contains(t, body, "Sunny afternoon")
	assert.Contains(t, body, "Aug 30, 2026")
	assert.Contains(t, body, "Beach, Family")
}

func TestNotificationSubjectFallsBackForEmptyTitle(t *testing.T) {
	assert.Equal(t, "New memory: Untitled", NotificationSubject(&models.Memory{Title: "  "}))
	assert.Equal(t, "New memory: Beach Day", NotificationSubject(&models.Memory{Title: "Beach Day"}))
}

func TestDispatchHonorsCanceledContext(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcherWithSender(sender, "noreply@example.com", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := d.Dispatch(ctx, Message{
		To:      []string{"family@example.com"},
		Subject: "New memory",
		HTML:    "<p>hello</p>",
	})

	assert.False(t, result.Delivered())
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Empty(t, sender.sent)
}
