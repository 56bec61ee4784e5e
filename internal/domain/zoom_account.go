package domain

import "time"

// ZoomAccount is a conferencing account slots are booked against.
type ZoomAccount struct {
	ID       string
	Name     string
	Email    string
	HostKey  string
	Color    string
	Priority int
	IsActive bool
}

// Booking is the slice of a zoom ticket that occupies an account's calendar.
type Booking struct {
	TicketID     string
	TicketNumber string
	Title        string
	Description  string
	RequesterID  string
	AccountID    string
	Status       TicketStatus
	Window       BookingWindow
	MeetingLink  string
	Passcode     string
	CreatedAt    time.Time
}
