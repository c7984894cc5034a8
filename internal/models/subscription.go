package models

import (
	"strings"
	"time"
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(s)) {
	case ChannelSMS:
		return ChannelSMS, nil
	case ChannelWhatsApp:
		return ChannelWhatsApp, nil
	default:
		return "", &ValidationError{Field: "channel", Value: s}
	}
}

// Subscription registers a recipient for alerts of given types in a region.
// At most one active subscription exists per (recipient, region) pair.
type Subscription struct {
	PhoneNumber  string
	Region       string
	AlertTypes   []AlertType
	Language     string
	Channel      Channel
	Active       bool
	SubscribedAt time.Time
}

func (s *Subscription) WantsType(t AlertType) bool {
	for _, at := range s.AlertTypes {
		if at == t {
			return true
		}
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// DeliveryRecord is an append-only audit fact: alert A was attempted to
// recipient R via channel C at time T with outcome O.
type DeliveryRecord struct {
	ID          string
	AlertID     string
	PhoneNumber string
	Channel     Channel
	Status      DeliveryStatus
	Error       string
	DeliveredAt time.Time
}
