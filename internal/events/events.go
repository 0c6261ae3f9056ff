// Package events carries domain events from sessions to the rest of the
// system.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/carpool-matching/internal/models"
)

type Type string

const (
	PostPublished Type = "post_published"
	MatchesReady  Type = "matches_ready"
	LateMatch     Type = "late_match"
	RideConfirmed Type = "ride_confirmed"
)

type Event struct {
	Type      Type                    `json:"type"`
	SessionID string                  `json:"session_id"`
	UserID    string                  `json:"user_id"`
	Role      models.Role             `json:"role"`
	Candidate *models.MatchCandidate  `json:"candidate,omitempty"`
	Matches   int                     `json:"matches,omitempty"`
	History   *models.RideHistoryItem `json:"history,omitempty"`
	At        time.Time               `json:"at"`
}

// Key partitions events so a session's events stay ordered.
func (e Event) Key() []byte { return []byte(e.SessionID) }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.Hash{}})
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: e.Key(), Value: b})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// Decode parses a message value written by KafkaPublisher.
func Decode(b []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(b, &e)
	return e, err
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
