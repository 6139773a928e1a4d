package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EvaluationEvent announces that an essay received a new score.
type EvaluationEvent struct {
	EssayID     uint      `json:"essay_id"`
	UserID      uint      `json:"user_id"`
	ThemeID     uint      `json:"theme_id"`
	TotalScore  int       `json:"total_score"`
	Provider    string    `json:"provider"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// EvaluationPublisher fans evaluation events out to interested consumers.
type EvaluationPublisher interface {
	PublishEvaluation(ctx context.Context, event EvaluationEvent) error
}

// EvaluationSubject returns the NATS subject evaluation events go to.
func EvaluationSubject(prefix string) string {
	prefix = strings.Trim(strings.ReplaceAll(prefix, ":", "."), ". ")
	if prefix == "" {
		return "essays.evaluated"
	}
	return prefix + ".essays.evaluated"
}

type natsEvaluationPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSEvaluationPublisher publishes events on the connection. A nil
// connection yields a publisher that drops every event.
func NewNATSEvaluationPublisher(conn *nats.Conn, subjectPrefix string, logger zerolog.Logger) EvaluationPublisher {
	if conn == nil {
		return NoopEvaluationPublisher{}
	}

	return &natsEvaluationPublisher{
		conn:    conn,
		subject: EvaluationSubject(subjectPrefix),
		logger:  logger.With().Str("component", "evaluation_publisher").Logger(),
	}
}

func (p *natsEvaluationPublisher) PublishEvaluation(_ context.Context, event EvaluationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return err
	}

	p.logger.Debug().Uint("essay_id", event.EssayID).Str("subject", p.subject).Msg("evaluation event published")
	return nil
}

// NoopEvaluationPublisher is used when no broker is configured.
type NoopEvaluationPublisher struct{}

func (NoopEvaluationPublisher) PublishEvaluation(context.Context, EvaluationEvent) error {
	return nil
}
