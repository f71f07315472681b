package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	requestDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/request"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *UserRepository) AssignedTechnicianIDs(ctx context.Context, requesterID int64) ([]int64, error) {
	query, args, err := sq.Select("DISTINCT assigned_technician_id").
		From("maintenance_requests").
		Where(sq.Eq{"created_by_id": requesterID}).
		Where(sq.NotEq{"assigned_technician_id": nil}).
		OrderBy("assigned_technician_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

type taskCount struct {
	TechnicianID int64 `gorm:"column:technician_id"`
	Active       int   `gorm:"column:active"`
}

type membership struct {
	UserID   int64  `gorm:"column:user_id"`
	TeamID   int64  `gorm:"column:team_id"`
	TeamName string `gorm:"column:team_name"`
}

func (r *UserRepository) ListTechnicians(ctx context.Context, ids []int64) ([]*user.Technician, error) {
	db := r.db.WithContext(ctx)

	q := db.Where("role = ?", string(coreUser.RoleTechnician)).Order("name ASC")
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}
	var rows []userDatamodel.User
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*user.Technician{}, nil
	}

	techIDs := make([]int64, len(rows))
	for i, row := range rows {
		techIDs[i] = row.ID
	}

	counts, err := r.activeTasks(db, techIDs)
	if err != nil {
		return nil, err
	}
	teams, err := r.teams(db, techIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*user.Technician, 0, len(rows))
	for i := range rows {
		t := &user.Technician{
			User:        *user.FromDataModel(&rows[i]),
			Teams:       teams[rows[i].ID],
			ActiveTasks: counts[rows[i].ID],
		}
		if t.Teams == nil {
			t.Teams = []user.TeamRef{}
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *UserRepository) activeTasks(db *gorm.DB, techIDs []int64) (map[int64]int, error) {
	query, args, err := sq.Select("assigned_technician_id AS technician_id", "COUNT(*) AS active").
		From("maintenance_requests").
		Where(sq.Eq{"assigned_technician_id": techIDs}).
		Where(sq.NotEq{"status": "SCRAP"}).
		GroupBy("assigned_technician_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []taskCount
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.TechnicianID] = row.Active
	}
	return out, nil
}

func (r *UserRepository) teams(db *gorm.DB, techIDs []int64) (map[int64][]user.TeamRef, error) {
	var rows []membership
	err := db.Table("team_members").
		Select("team_members.user_id, team_members.team_id, maintenance_teams.name AS team_name").
		Joins("JOIN maintenance_teams ON maintenance_teams.id = team_members.team_id").
		Where("team_members.user_id IN ?", techIDs).
		Order("maintenance_teams.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]user.TeamRef)
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], user.TeamRef{ID: row.TeamID, Name: row.TeamName})
	}
	return out, nil
}

func countWhere(table string, cond sq.Sqlizer, alias string) sq.Sqlizer {
	return sq.Alias(sq.Select("COUNT(*)").From(table).Where(cond), alias)
}

func (r *UserRepository) ProfileStats(ctx context.Context, userID int64) (user.ProfileStats, error) {
	query, args, err := sq.Select().
		Column(countWhere("maintenance_requests", sq.Eq{"assigned_technician_id": userID}, "assigned_requests")).
		Column(countWhere("maintenance_requests", sq.Eq{"created_by_id": userID}, "created_requests")).
		Column(countWhere("equipment", sq.Eq{"owner_id": userID}, "owned_equipment")).
		ToSql()
	if err != nil {
		return user.ProfileStats{}, err
	}

	var stats user.ProfileStats
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return user.ProfileStats{}, err
	}
	return stats, nil
}

func (r *UserRepository) RecentAssigned(ctx context.Context, technicianID int64, limit int) ([]*request.Request, error) {
	return r.recent(ctx, sq.And{
		sq.Eq{"assigned_technician_id": technicianID},
		sq.NotEq{"status": "SCRAP"},
	}, "updated_at DESC", limit)
}

func (r *UserRepository) RecentCreated(ctx context.Context, creatorID int64, limit int) ([]*request.Request, error) {
	return r.recent(ctx, sq.Eq{"created_by_id": creatorID}, "created_at DESC", limit)
}

func (r *UserRepository) recent(ctx context.Context, cond sq.Sqlizer, order string, limit int) ([]*request.Request, error) {
	var rows []*requestDatamodel.MaintenanceRequest
	err := authz.Where(r.db.WithContext(ctx).Preload("Equipment"), cond).
		Order(order).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return request.FromDataModelSlice(rows), nil
}
