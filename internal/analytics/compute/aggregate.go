// Package compute implements the pure batch analytics engines: KPI
// calculations, funnel analysis, cohort retention, RFM segmentation and
// A/B experiment evaluation. Every engine takes an immutable event slice
// and returns a fresh result; nothing in this package touches the
// database or shared mutable state, so repeated calls on the same input
// yield identical output.
package compute

import (
	"math"
	"sort"
	"time"

	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// userProfile carries the per-user facts shared by the engines. Both
// dates are UTC midnights.
type userProfile struct {
	id         string
	firstDay   time.Time
	lastDay    time.Time
	eventCount int64
	revenue    float64
	purchased  bool
	signedUp   bool
}

// profileUsers folds the event set into one profile per user.
func profileUsers(set []events.Event) map[string]*userProfile {
	byUser := make(map[string]*userProfile, len(set)/4+1)
	for _, e := range set {
		day := e.Day()
		p, ok := byUser[e.UserID]
		if !ok {
			p = &userProfile{id: e.UserID, firstDay: day, lastDay: day}
			byUser[e.UserID] = p
		}
		if day.Before(p.firstDay) {
			p.firstDay = day
		}
		if day.After(p.lastDay) {
			p.lastDay = day
		}
		p.eventCount++
		p.revenue += e.Revenue
		switch e.Type {
		case enums.EventPurchase:
			p.purchased = true
		case enums.EventSignup:
			p.signedUp = true
		}
	}
	return byUser
}

// sortedProfiles orders profiles by user id so downstream iteration and
// clustering input are deterministic.
func sortedProfiles(byUser map[string]*userProfile) []*userProfile {
	out := make([]*userProfile, 0, len(byUser))
	for _, p := range byUser {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// maxDay returns the UTC day of the latest event in the set. The set must
// be non-empty.
func maxDay(set []events.Event) time.Time {
	ref := set[0].Day()
	for _, e := range set[1:] {
		if d := e.Day(); d.After(ref) {
			ref = d
		}
	}
	return ref
}

// daysBetween returns the whole days from a to b, both UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// monthIndex maps a date to a linear month counter so that cohort period
// math is a plain subtraction.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func errEmptyInput() error {
	return pkgerrors.New(pkgerrors.CodeEmptyInput, "analytics input is empty")
}

func errDivisionByZero(message string, details map[string]any) error {
	err := pkgerrors.New(pkgerrors.CodeDivisionByZero, message)
	if details != nil {
		return err.WithDetails(details)
	}
	return err
}
