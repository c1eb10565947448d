package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/pkg/jobs"
	"github.com/noah-isme/talent-assessment-api/pkg/mailer"
)

const invitationJobType = "invitation"

// Invitation outcomes recorded in metrics.
const (
	InvitationQueued  = "queued"
	InvitationSent    = "sent"
	InvitationFailed  = "failed"
	InvitationSkipped = "skipped"
)

type mailSender interface {
	Enabled() bool
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

// InvitationPayload is the queued unit of work for one assessment link.
type InvitationPayload struct {
	EvaluationID   string
	EvaluationName string
	Link           models.AssessmentLink
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<p>Hello {{.Name}},</p>
<p>You have been invited to complete the <strong>{{.Test}}</strong> assessment as part of <em>{{.Evaluation}}</em>.</p>
<p><a href="{{.URL}}">Start the questionnaire</a></p>
<p>This link is personal and expires on {{.Expires}}.</p>`))

// InvitationService queues and delivers assessment links by email.
type InvitationService struct {
	mailer  mailSender
	queue   jobDispatcher
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewInvitationService constructs an InvitationService. Invitations are only
// queued when enabled is set and the mailer has an endpoint.
func NewInvitationService(sender mailSender, queue jobDispatcher, metrics *MetricsService, logger *zap.Logger, enabled bool) *InvitationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvitationService{mailer: sender, queue: queue, metrics: metrics, logger: logger, enabled: enabled}
}

// Enabled reports whether invitations will be delivered.
func (s *InvitationService) Enabled() bool {
	return s != nil && s.enabled && s.queue != nil && s.mailer != nil && s.mailer.Enabled()
}

// Dispatch queues one invitation per link with a recipient email and returns
// how many were queued.
func (s *InvitationService) Dispatch(ctx context.Context, evaluation models.Evaluation, links []models.AssessmentLink) int {
	if s == nil {
		return 0
	}
	if !s.Enabled() {
		s.logger.Info("invitations disabled, links must be shared manually", zap.String("evaluation_id", evaluation.ID), zap.Int("links", len(links)))
		return 0
	}
	queued := 0
	for _, link := range links {
		if link.CollaboratorEmail == "" {
			s.metrics.RecordInvitation(InvitationSkipped)
			continue
		}
		job := jobs.Job{
			ID:   link.ResponseID,
			Type: invitationJobType,
			Payload: InvitationPayload{
				EvaluationID:   evaluation.ID,
				EvaluationName: evaluation.Name,
				Link:           link,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to queue invitation", zap.String("response_id", link.ResponseID), zap.Error(err))
			s.metrics.RecordInvitation(InvitationFailed)
			continue
		}
		s.metrics.RecordInvitation(InvitationQueued)
		queued++
	}
	return queued
}

// Handle delivers a queued invitation. Returning an error lets the queue retry it.
func (s *InvitationService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(InvitationPayload)
	if !ok {
		s.logger.Error("invitation job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	msg, err := buildInvitation(payload)
	if err != nil {
		return err
	}
	messageID, err := s.mailer.Send(ctx, msg)
	if err != nil {
		return err
	}
	s.metrics.RecordInvitation(InvitationSent)
	s.logger.Info("invitation sent",
		zap.String("evaluation_id", payload.EvaluationID),
		zap.String("response_id", payload.Link.ResponseID),
		zap.String("message_id", messageID))
	return nil
}

// GiveUp records an invitation that exhausted its retries.
func (s *InvitationService) GiveUp(job jobs.Job, err error) {
	s.metrics.RecordInvitation(InvitationFailed)
	s.logger.Error("invitation delivery abandoned", zap.String("response_id", job.ID), zap.Error(err))
}

func buildInvitation(payload InvitationPayload) (mailer.Message, error) {
	link := payload.Link
	name := link.CollaboratorName
	if name == "" {
		name = link.CollaboratorEmail
	}
	var body bytes.Buffer
	err := invitationTemplate.Execute(&body, map[string]string{
		"Name":       name,
		"Test":       link.TestName,
		"Evaluation": payload.EvaluationName,
		"URL":        link.URL,
		"Expires":    link.ExpiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return mailer.Message{}, fmt.Errorf("render invitation: %w", err)
	}
	return mailer.Message{
		To:      link.CollaboratorEmail,
		Subject: fmt.Sprintf("Assessment invitation: %s", link.TestName),
		HTML:    body.String(),
	}, nil
}
