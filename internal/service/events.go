package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mihas-katc/admissions-api/internal/observability"
)

// Event types published by the admissions services.
const (
	EventAssessmentCompleted = "eligibility.assessed"
	EventAssessmentOverride  = "eligibility.status_overridden"
	EventAppealSubmitted     = "eligibility.appeal_submitted"
	EventProgramChanged      = "program.criteria_changed"
)

// Event is the envelope written to Redis and NATS.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Source     string      `json:"source"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// EventPublisher fans admissions events out to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

type brokerPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time
}

// NewEventPublisher publishes events on the Redis channel "<base>:events" and
// the NATS subject "<base>.<type>". Either broker may be nil.
func NewEventPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if base := strings.TrimSpace(channelBase); base != "" {
		channel = base + ":events"
		subject = strings.ReplaceAll(base, ":", ".")
	}

	return &brokerPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

// EventChannel returns the Redis channel used for a channel base.
func EventChannel(channelBase string) string {
	return strings.TrimSpace(channelBase) + ":events"
}

func (p *brokerPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	if p.redisChannel == "" || (p.redis == nil && p.nats == nil) {
		return nil
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     p.nodeID,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.natsSubject+"."+eventType, payload); err != nil {
			return err
		}
	}

	observability.EventsPublished().WithLabelValues(eventType).Inc()
	p.logger.Debug().Str("event_type", eventType).Str("event_id", event.ID).Msg("event published")

	return nil
}

type noopPublisher struct{}

// NewNoopEventPublisher returns a publisher that drops every event.
func NewNoopEventPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
