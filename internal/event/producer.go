package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/utafrali/ReminderGo/internal/domain"
	pkgkafka "github.com/utafrali/ReminderGo/pkg/kafka"
	"github.com/utafrali/ReminderGo/pkg/logger"
)

// Kafka topics for reminder service events.
var (
	TopicUserRegistered  = pkgkafka.Topic(AggregateTypeUser, "registered")
	TopicUserDeleted     = pkgkafka.Topic(AggregateTypeUser, "deleted")
	TopicReminderCreated = pkgkafka.Topic(AggregateTypeReminder, "created")
	TopicReminderUpdated = pkgkafka.Topic(AggregateTypeReminder, "updated")
	TopicReminderDeleted = pkgkafka.Topic(AggregateTypeReminder, "deleted")
)

// Aggregate type constants.
const (
	AggregateTypeUser     = "user"
	AggregateTypeReminder = "reminder"
)

// Source identifies events originating from this service.
const Source = "reminder-api"

// UserData is the payload for user events. It never carries the password hash.
type UserData struct {
	ID    int64  `json:"id"`
	Email string `json:"email,omitempty"`
}

// ReminderData is the payload for reminder.created and reminder.updated.
type ReminderData struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"due_date"`
	ReminderType string    `json:"reminder_type"`
	IsCompleted  bool      `json:"is_completed"`
}

// ReminderDeletedData is the payload for reminder.deleted.
type ReminderDeletedData struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

// Publisher is the subset of *pkgkafka.Producer this package needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes reminder service domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// UserRegistered publishes a user.registered event.
func (p *Producer) UserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, "user.registered", AggregateTypeUser, user.ID,
		UserData{ID: user.ID, Email: user.Email})
}

// UserDeleted publishes a user.deleted event.
func (p *Producer) UserDeleted(ctx context.Context, userID int64) error {
	return p.publish(ctx, TopicUserDeleted, "user.deleted", AggregateTypeUser, userID,
		UserData{ID: userID})
}

// ReminderCreated publishes a reminder.created event.
func (p *Producer) ReminderCreated(ctx context.Context, r *domain.Reminder) error {
	return p.publish(ctx, TopicReminderCreated, "reminder.created", AggregateTypeReminder, r.ID, reminderData(r))
}

// ReminderUpdated publishes a reminder.updated event.
func (p *Producer) ReminderUpdated(ctx context.Context, r *domain.Reminder) error {
	return p.publish(ctx, TopicReminderUpdated, "reminder.updated", AggregateTypeReminder, r.ID, reminderData(r))
}

// ReminderDeleted publishes a reminder.deleted event.
func (p *Producer) ReminderDeleted(ctx context.Context, ownerID, reminderID int64) error {
	return p.publish(ctx, TopicReminderDeleted, "reminder.deleted", AggregateTypeReminder, reminderID,
		ReminderDeletedData{ID: reminderID, UserID: ownerID})
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateType string, aggregateID int64, data any) error {
	event, err := pkgkafka.NewEvent(eventType, strconv.FormatInt(aggregateID, 10), aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.InfoContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("event_id", event.EventID),
		slog.Int64("aggregate_id", aggregateID),
	)

	return nil
}

func reminderData(r *domain.Reminder) ReminderData {
	return ReminderData{
		ID:           r.ID,
		UserID:       r.UserID,
		Title:        r.Title,
		DueDate:      r.DueDate,
		ReminderType: string(r.ReminderType),
		IsCompleted:  r.IsCompleted,
	}
}

// Nop discards every event. It is used when Kafka is disabled.
type Nop struct{}

func (Nop) UserRegistered(context.Context, *domain.User) error { return nil }
func (Nop) UserDeleted(context.Context, int64) error { return nil }
func (Nop) ReminderCreated(context.Context, *domain.Reminder) error { return nil }
func (Nop) ReminderUpdated(context.Context, *domain.Reminder) error { return nil }
func (Nop) ReminderDeleted(context.Context, int64, int64) error { return nil }
