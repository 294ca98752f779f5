package compute

import (
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
)

// ChannelPerformance aggregates per acquisition channel: distinct users,
// distinct purchasers, purchase revenue, conversion rate and ARPU. Rows
// follow the channel enum order and cover only channels present in the
// set.
func ChannelPerformance(set []events.Event) ([]types.ChannelStats, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	type agg struct {
		users      map[string]struct{}
		purchasers map[string]struct{}
		revenue    float64
	}
	byChannel := make(map[enums.AcquisitionChannel]*agg)
	for _, e := range set {
		a, ok := byChannel[e.Channel]
		if !ok {
			a = &agg{users: make(map[string]struct{}), purchasers: make(map[string]struct{})}
			byChannel[e.Channel] = a
		}
		a.users[e.UserID] = struct{}{}
		if e.Type == enums.EventPurchase {
			a.purchasers[e.UserID] = struct{}{}
			a.revenue += e.Revenue
		}
	}
	out := make([]types.ChannelStats, 0, len(byChannel))
	for _, channel := range enums.AcquisitionChannelValues() {
		a, ok := byChannel[channel]
		if !ok {
			continue
		}
		users := float64(len(a.users))
		out = append(out, types.ChannelStats{
			Channel:        channel.String(),
			Users:          int64(len(a.users)),
			Conversions:    int64(len(a.purchasers)),
			Revenue:        round2(a.revenue),
			ConversionRate: round1(float64(len(a.purchasers)) / users * 100),
			ARPU:           round2(a.revenue / users),
		})
	}
	return out, nil
}

// DeviceConversions aggregates distinct users and purchasers per device
// type, in enum order, covering only devices present in the set.
func DeviceConversions(set []events.Event) ([]types.DeviceStats, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	type agg struct {
		users      map[string]struct{}
		purchasers map[string]struct{}
	}
	byDevice := make(map[enums.DeviceType]*agg)
	for _, e := range set {
		a, ok := byDevice[e.Device]
		if !ok {
			a = &agg{users: make(map[string]struct{}), purchasers: make(map[string]struct{})}
			byDevice[e.Device] = a
		}
		a.users[e.UserID] = struct{}{}
		if e.Type == enums.EventPurchase {
			a.purchasers[e.UserID] = struct{}{}
		}
	}
	out := make([]types.DeviceStats, 0, len(byDevice))
	for _, device := range enums.DeviceTypeValues() {
		a, ok := byDevice[device]
		if !ok {
			continue
		}
		out = append(out, types.DeviceStats{
			Device:         device.String(),
			Users:          int64(len(a.users)),
			Conversions:    int64(len(a.purchasers)),
			ConversionRate: round1(float64(len(a.purchasers)) / float64(len(a.users)) * 100),
		})
	}
	return out, nil
}
