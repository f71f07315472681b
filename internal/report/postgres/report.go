package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/report"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Overview(ctx context.Context, cond sq.Sqlizer) (*report.Overview, error) {
	requests := sq.Select("COUNT(*)").From("maintenance_requests")
	requests = authz.ApplySelect(requests, cond)
	open := sq.Select("COUNT(*)").From("maintenance_requests").
		Where(sq.Eq{"status": []string{"NEW", "IN_PROGRESS"}})
	open = authz.ApplySelect(open, cond)

	q := sq.Select().
		Column(sq.Alias(sq.Select("COUNT(*)").From("equipment"), "total_equipment")).
		Column(sq.Alias(requests, "total_requests")).
		Column(sq.Alias(sq.Select("COUNT(*)").From("maintenance_teams"), "total_teams")).
		Column(sq.Alias(open, "open_requests"))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var o report.Overview
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ReportRepository) Requests(ctx context.Context, cond sq.Sqlizer) ([]report.RequestRow, error) {
	q := sq.Select(
		"maintenance_requests.id",
		"maintenance_requests.subject",
		"maintenance_requests.type",
		"maintenance_requests.status",
		"equipment.name AS equipment",
		"users.name AS technician",
		"maintenance_teams.name AS team",
		"maintenance_requests.scheduled_date",
	).
		From("maintenance_requests").
		Join("equipment ON equipment.id = maintenance_requests.equipment_id").
		LeftJoin("users ON users.id = maintenance_requests.assigned_technician_id").
		LeftJoin("maintenance_teams ON maintenance_teams.id = maintenance_requests.maintenance_team_id").
		OrderBy("maintenance_requests.scheduled_date ASC", "maintenance_requests.id ASC")
	q = authz.ApplySelect(q, cond)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []report.RequestRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
