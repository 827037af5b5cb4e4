// Package domain contains currency exchange requests: a user offering to send
// money to or receive money from Uzbekistan by a deadline.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeSend    Type = "send"
	TypeReceive Type = "receive"
)

func (t Type) Valid() bool {
	return t == TypeSend || t == TypeReceive
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCompleted
}

// Currencies accepted for an exchange amount.
var Currencies = []string{"JPY", "UZS", "USD"}

// savingsRate approximates what both sides save by matching instead of using a bank.
var savingsRate = decimal.RequireFromString("0.03")

type Request struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID       snowflake.ID    `gorm:"not null;index" json:"user_id"`
	Type         Type            `gorm:"type:text;not null;index" json:"type"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,0);not null" json:"amount"`
	Currency     string          `gorm:"type:text;not null" json:"currency"`
	Deadline     time.Time       `gorm:"not null" json:"deadline"`
	Urgent       bool            `gorm:"not null;default:false" json:"urgent"`
	HideContacts bool            `gorm:"not null;default:false" json:"hide_contacts"`
	Conditions   string          `gorm:"type:text;not null;default:''" json:"conditions"`
	Status       Status          `gorm:"type:text;not null;index" json:"status"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Request) TableName() string { return "exchange_requests" }

// PotentialSavings is the rough amount saved at savingsRate, rounded down to a whole unit.
func (r Request) PotentialSavings() decimal.Decimal {
	return r.Amount.Mul(savingsRate).Floor()
}

// Detail is a request as returned to clients.
type Detail struct {
	Request
	PotentialSavings decimal.Decimal `json:"potential_savings"`
}

func NewDetail(r Request) Detail {
	return Detail{Request: r, PotentialSavings: r.PotentialSavings()}
}
