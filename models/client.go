package models

import (
	"fmt"
	"strings"
	"time"
)

// Client is a person who messages the agent, keyed by normalized phone
// number. The key is globally unique and immutable; clients are never hard
// deleted.
type Client struct {
	PhoneNumber      string            `json:"phoneNumber" bson:"phoneNumber"`
	Name             string            `json:"name,omitempty" bson:"name,omitempty"`
	Email            string            `json:"email,omitempty" bson:"email,omitempty"`
	Preferences      map[string]string `json:"preferences,omitempty" bson:"preferences,omitempty"`
	AppointmentCount int               `json:"appointmentCount" bson:"appointmentCount"`
	TotalSpent       float64           `json:"totalSpent" bson:"totalSpent"`
	Notes            []string          `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// NormalizePhone strips separators so the contact key is stable across
// message transports.
func NormalizePhone(phone string) string {
	replacer := strings.NewReplacer("-", "", " ", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// NewClient creates a client record for a previously unseen contact key.
func NewClient(phone string) *Client {
	now := time.Now()
	return &Client{
		PhoneNumber: NormalizePhone(phone),
		Preferences: make(map[string]string),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddNote appends a timestamped entry to the note log.
func (c *Client) AddNote(note string) {
	stamp := time.Now().Format("2006-01-02 15:04:05")
	c.Notes = append(c.Notes, fmt.Sprintf("%s: %s", stamp, note))
	c.UpdatedAt = time.Now()
}

// SetPreference stores or overwrites a preference tag.
func (c *Client) SetPreference(key, value string) {
	if c.Preferences == nil {
		c.Preferences = make(map[string]string)
	}
	c.Preferences[key] = value
	c.UpdatedAt = time.Now()
}

// RecordBooking bumps the running totals after a completed booking.
func (c *Client) RecordBooking(amount float64) {
	c.AppointmentCount++
	c.TotalSpent += amount
	c.UpdatedAt = time.Now()
}
