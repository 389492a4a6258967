package calendar

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"ReplyDesk/internal/config"
	"ReplyDesk/internal/model"
)

// OfferOrigin is the original message recorded for a scheduling offer.
const OfferOrigin = "Pedido de agendamento"

const lookahead = 7

// window is a half-open range of business hours [from, to).
type window struct{ from, to int }

var businessHours = []window{{9, 12}, {14, 18}}

// Generator simulates a calendar backend listing free one-hour slots.
type Generator struct {
	delay        time.Duration
	availability float64
	now          func() time.Time
	roll         func() float64
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// WithRand sets the source of uniform numbers in [0, 1).
func WithRand(roll func() float64) Option { return func(g *Generator) { g.roll = roll } }

func NewGenerator(cfg config.CalendarConfig, opts ...Option) *Generator {
	g := &Generator{
		delay:        cfg.Delay,
		availability: cfg.Availability,
		now:          time.Now,
		roll:         rand.Float64,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Slots returns the free slots among the next seven whole hours, starting at
// the top of the current hour. Only business hours are considered and each
// candidate is free with probability availability.
func (g *Generator) Slots(ctx context.Context) ([]model.CalendarSlot, error) {
	if g.delay > 0 {
		t := time.NewTimer(g.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	now := g.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())

	slots := make([]model.CalendarSlot, 0, lookahead)
	for i := range lookahead {
		from := start.Add(time.Duration(i) * time.Hour)
		if !inBusinessHours(from.Hour()) {
			continue
		}
		if g.roll() >= g.availability {
			continue
		}
		slots = append(slots, model.CalendarSlot{
			ID:        fmt.Sprintf("slot-%d", i),
			StartTime: from,
			EndTime:   from.Add(time.Hour),
		})
	}
	return slots, nil
}

func inBusinessHours(hour int) bool {
	for _, w := range businessHours {
		if hour >= w.from && hour < w.to {
			return true
		}
	}
	return false
}

// OfferText is the reply proposing slot to a customer.
func OfferText(slot model.CalendarSlot) string {
	return fmt.Sprintf("Olá! Tenho um horário disponível para você às %s. Podemos confirmar?", slot.StartTime.Format("15:04"))
}
