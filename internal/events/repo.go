package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/pulseboardhq/pulseboard-backend/internal/repo"
	"github.com/pulseboardhq/pulseboard-backend/pkg/db/models"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	"github.com/pulseboardhq/pulseboard-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListQuery pages through raw events in (occurred_on, id) order.
type ListQuery struct {
	Filter Filter
	Limit  int
	Cursor *pagination.Cursor
}

// Repository persists and loads the behavioral log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertBatch(ctx context.Context, batch []Event) (int64, error)
	List(ctx context.Context, q ListQuery) ([]Event, string, error)
	LoadAll(ctx context.Context, f Filter) ([]Event, error)
	CountAll(ctx context.Context) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an events repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// InsertBatch writes the batch, skipping rows whose id already exists so
// re-played ingests stay idempotent. Returns the number of new rows.
func (r *repository) InsertBatch(ctx context.Context, batch []Event) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	rows := make([]models.Event, 0, len(batch))
	for _, e := range batch {
		rows = append(rows, toModel(e))
	}

	res := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) List(ctx context.Context, q ListQuery) ([]Event, string, error) {
	limit := pagination.NormalizeLimit(q.Limit)

	query := applyFilter(r.DB(ctx).Model(&models.Event{}), q.Filter)
	if q.Cursor != nil {
		query = query.Where(
			"(occurred_on > ?) OR (occurred_on = ? AND id > ?)",
			q.Cursor.OccurredOn, q.Cursor.OccurredOn, q.Cursor.ID,
		)
	}

	var rows []models.Event
	err := query.
		Order("occurred_on ASC").
		Order("id ASC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{OccurredOn: last.OccurredOn, ID: last.ID})
	}

	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, next, nil
}

// LoadAll pulls the filtered collection for a batch computation, ordered
// by occurrence so downstream output is deterministic.
func (r *repository) LoadAll(ctx context.Context, f Filter) ([]Event, error) {
	var rows []models.Event
	err := applyFilter(r.DB(ctx).Model(&models.Event{}), f).
		Order("occurred_on ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (r *repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Event{}).Count(&count).Error
	return count, err
}

func applyFilter(query *gorm.DB, f Filter) *gorm.DB {
	if !f.From.IsZero() {
		query = query.Where("occurred_on >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("occurred_on <= ?", f.To)
	}
	if len(f.Channels) > 0 {
		channels := make([]string, 0, len(f.Channels))
		for _, c := range f.Channels {
			channels = append(channels, string(c))
		}
		query = query.Where("channel IN ?", channels)
	}
	if len(f.Devices) > 0 {
		devices := make([]string, 0, len(f.Devices))
		for _, d := range f.Devices {
			devices = append(devices, string(d))
		}
		query = query.Where("device IN ?", devices)
	}
	if f.Group != "" {
		query = query.Where("ab_group = ?", string(f.Group))
	}
	return query
}

func toModel(e Event) models.Event {
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return models.Event{
		ID:         id,
		UserID:     e.UserID,
		EventType:  string(e.Type),
		OccurredOn: e.Day(),
		Revenue:    e.Revenue,
		Device:     string(e.Device),
		Channel:    string(e.Channel),
		ABGroup:    string(e.Group),
	}
}

func fromModel(row models.Event) Event {
	return Event{
		ID:         row.ID,
		UserID:     row.UserID,
		Type:       enums.EventType(row.EventType),
		OccurredOn: row.OccurredOn,
		Revenue:    row.Revenue,
		Device:     enums.DeviceType(row.Device),
		Channel:    enums.AcquisitionChannel(row.Channel),
		Group:      enums.ExperimentGroup(row.ABGroup),
	}
}
