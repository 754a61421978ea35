package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/visibility"
)

const incidentColumns = `id, title, description, location, sector, sub_category, priority, status,
               reporter_name, reporter_contact, reporter_id, assigned_staff_id, assigned_staff_name,
               assigned_department, resolution_notes, is_emergency, estimated_resolution_time,
               actual_resolution_time, created_at, updated_at`

// IncidentRepository encapsulates incident persistence. Claim and Resolve are
// single conditional writes so concurrent staff cannot overwrite each other.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, predicate visibility.Predicate) ([]domain.Incident, error)
	Update(ctx context.Context, id string, fields []string, changes *domain.Incident) (*domain.Incident, error)
	Delete(ctx context.Context, id string) error
	Claim(ctx context.Context, id string, claimant domain.Claimant) (*domain.Incident, error)
	Resolve(ctx context.Context, id, staffID, notes string, resolvedAt time.Time) (*domain.Incident, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (title, description, location, sector, sub_category, priority, status,
            reporter_name, reporter_contact, reporter_id, assigned_staff_id, assigned_staff_name,
            assigned_department, resolution_notes, is_emergency, estimated_resolution_time, actual_resolution_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Location,
		string(incident.Sector),
		incident.SubCategory,
		string(incident.Priority),
		string(incident.Status),
		incident.ReporterName,
		incident.ReporterContact,
		incident.ReporterID,
		incident.AssignedStaffID,
		incident.AssignedStaffName,
		incident.AssignedDepartment,
		incident.ResolutionNotes,
		incident.IsEmergency,
		incident.EstimatedResolutionTime,
		incident.ActualResolutionTime,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return r.fetchSingle(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=$1`, id)
}

func (r *incidentRepository) List(ctx context.Context, predicate visibility.Predicate) ([]domain.Incident, error) {
	where, args := buildIncidentWhere(predicate)
	limit := predicate.Limit
	if limit <= 0 {
		limit = visibility.DefaultLimit
	}
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE %s ORDER BY %s LIMIT %d`,
		incidentColumns, where, incidentOrderBy, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIncidents(rows)
}

// Update writes only the named fields of changes and returns the stored row.
func (r *incidentRepository) Update(ctx context.Context, id string, fields []string, changes *domain.Incident) (*domain.Incident, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	query, args, err := buildIncidentUpdate(id, fields, changes)
	if err != nil {
		return nil, err
	}
	return r.fetchSingle(ctx, query, args...)
}

func (r *incidentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM incidents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *incidentRepository) Claim(ctx context.Context, id string, claimant domain.Claimant) (*domain.Incident, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `
        UPDATE incidents
        SET assigned_staff_id=$2, assigned_staff_name=$3, assigned_department=$4, status='yellow', updated_at=NOW()
        WHERE id=$1 AND status <> 'green' AND (assigned_staff_id IS NULL OR assigned_staff_id=$2)
        RETURNING ` + incidentColumns
	incident, err := r.fetchSingle(ctx, query, id, claimant.StaffID, claimant.Name, nullIfEmpty(claimant.Department))
	if !errors.Is(err, ErrNotFound) {
		return incident, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.StatusGreen {
		return current, ErrAlreadyResolved
	}
	return current, ErrClaimConflict
}

func (r *incidentRepository) Resolve(ctx context.Context, id, staffID, notes string, resolvedAt time.Time) (*domain.Incident, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `
        UPDATE incidents
        SET status='green', resolution_notes=$3, actual_resolution_time=$4, updated_at=NOW()
        WHERE id=$1 AND assigned_staff_id=$2 AND status='yellow'
        RETURNING ` + incidentColumns
	incident, err := r.fetchSingle(ctx, query, id, staffID, notes, resolvedAt)
	if !errors.Is(err, ErrNotFound) {
		return incident, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return current, resolveRefusal(current, staffID)
}

func (r *incidentRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Incident, error) {
	incident, err := scanIncident(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var (
		incident                 domain.Incident
		sector, priority, status string
	)
	if err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Location,
		&sector,
		&incident.SubCategory,
		&priority,
		&status,
		&incident.ReporterName,
		&incident.ReporterContact,
		&incident.ReporterID,
		&incident.AssignedStaffID,
		&incident.AssignedStaffName,
		&incident.AssignedDepartment,
		&incident.ResolutionNotes,
		&incident.IsEmergency,
		&incident.EstimatedResolutionTime,
		&incident.ActualResolutionTime,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	); err != nil {
		return nil, err
	}
	incident.Sector = domain.Sector(sector)
	incident.Priority = domain.Priority(priority)
	incident.Status = domain.Status(status)
	return &incident, nil
}

func scanIncidents(rows pgx.Rows) ([]domain.Incident, error) {
	result := []domain.Incident{}
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *incident)
	}
	return result, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// validID reports whether id can address a UUID primary key. Anything else
// cannot exist and is treated as not found instead of a driver error.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
