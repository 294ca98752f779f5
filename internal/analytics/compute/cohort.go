package compute

import (
	"fmt"
	"sort"

	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
)

// CohortMatrix builds the monthly signup-cohort retention matrix. A
// user's cohort is the calendar month of their earliest event in the
// set; cohort size counts only users who have an explicit signup event,
// so a cohort that shows activity without any signup in scope cannot be
// sized and the call fails rather than inventing a denominator.
//
// Each row maps period keys ("M0", "M1", …) to the percentage of the
// cohort active in that period. The mapping is sparse: absent periods
// mean no data, not zero retention. By construction M0 is 100.0 for
// every cohort, since every user is active in their own signup month.
func CohortMatrix(set []events.Event) (*types.CohortResponse, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	byUser := profileUsers(set)

	// Distinct signed-up users per cohort month.
	sizes := make(map[string]map[string]struct{})
	for _, e := range set {
		if e.Type != enums.EventSignup {
			continue
		}
		cohort := byUser[e.UserID].firstDay.Format(monthLayout)
		users, ok := sizes[cohort]
		if !ok {
			users = make(map[string]struct{})
			sizes[cohort] = users
		}
		users[e.UserID] = struct{}{}
	}

	// Distinct active users per cohort month and period.
	active := make(map[string]map[int]map[string]struct{})
	for _, e := range set {
		first := byUser[e.UserID].firstDay
		period := monthIndex(e.Month()) - monthIndex(first)
		if period < 0 {
			continue
		}
		cohort := first.Format(monthLayout)
		periods, ok := active[cohort]
		if !ok {
			periods = make(map[int]map[string]struct{})
			active[cohort] = periods
		}
		users, ok := periods[period]
		if !ok {
			users = make(map[string]struct{})
			periods[period] = users
		}
		users[e.UserID] = struct{}{}
	}

	cohorts := make([]string, 0, len(active))
	for cohort := range active {
		cohorts = append(cohorts, cohort)
	}
	sort.Strings(cohorts)

	rows := make([]types.CohortRow, 0, len(cohorts))
	for _, cohort := range cohorts {
		size := float64(len(sizes[cohort]))
		if size == 0 {
			return nil, errDivisionByZero("cohort has no signup events in scope", map[string]any{
				"cohort": cohort,
			})
		}
		retention := make(map[string]float64, len(active[cohort]))
		for period, users := range active[cohort] {
			retention[fmt.Sprintf("M%d", period)] = round1(float64(len(users)) / size * 100)
		}
		rows = append(rows, types.CohortRow{
			Cohort:    cohort,
			Size:      int64(len(sizes[cohort])),
			Retention: retention,
		})
	}
	return &types.CohortResponse{Cohorts: rows}, nil
}
