package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

type fakeMailer struct {
	to, subject, html, text string
	err                     error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html, text string) error {
	m.to, m.subject, m.html, m.text = to, subject, html, text
	return m.err
}

type fakeRenderer struct {
	name string
	err  error
}

func (r *fakeRenderer) Render(name string, _ any) (string, string, string, error) {
	r.name = name
	if r.err != nil {
		return "", "", "", r.err
	}
	return "subject:" + name, "<p>" + name + "</p>", name, nil
}

func TestEmailService_SendParticipantJoined(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer, testLogger)

	err := svc.SendParticipantJoined(context.Background(), &domain.ParticipantJoinedEmailData{Email: "org@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "participant_joined", renderer.name)
	assert.Equal(t, "org@example.com", mailer.to)
	assert.Equal(t, "subject:participant_joined", mailer.subject)
}

func TestEmailService_SendWelcomeMessage(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewEmailService(mailer, &fakeRenderer{}, testLogger)

	require.NoError(t, svc.SendWelcomeMessage(context.Background(), &domain.WelcomeMessageEmailData{Email: "a@example.com"}))
	assert.Equal(t, "a@example.com", mailer.to)

	require.Error(t, svc.SendWelcomeMessage(context.Background(), nil))
}

func TestEmailService_Errors(t *testing.T) {
	renderErr := errors.New("template missing")
	svc := NewEmailService(&fakeMailer{}, &fakeRenderer{err: renderErr}, testLogger)
	err := svc.SendWelcomeMessage(context.Background(), &domain.WelcomeMessageEmailData{Email: "a@example.com"})
	assert.ErrorIs(t, err, renderErr)

	sendErr := errors.New("throttled")
	svc = NewEmailService(&fakeMailer{err: sendErr}, &fakeRenderer{}, testLogger)
	err = svc.SendParticipantJoined(context.Background(), &domain.ParticipantJoinedEmailData{Email: "a@example.com"})
	assert.ErrorIs(t, err, sendErr)
}
