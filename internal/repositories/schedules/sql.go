package schedules

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/dbx"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/timex"
)

const columns = `id, user_id, title, description, note, start_time, end_time,
	is_reminder, reminder_minutes, category, created_at, updated_at`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: d, now: time.Now}
}

// WithClock replaces the clock used for created_at and updated_at.
func (r *SQLRepository) WithClock(now func() time.Time) *SQLRepository {
	r.now = now
	return r
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *SQLRepository) Add(ctx context.Context, s *models.Schedule) (int64, error) {
	query :=
		`INSERT INTO schedules (user_id, title, description, note, start_time, end_time,
			is_reminder, reminder_minutes, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`

	ts := timex.Truncate(r.now())
	stamp := timex.FormatStorage(ts)

	var id int64
	err := r.db.QueryRowContext(ctx, r.q(query),
		s.UserID, s.Title, nullString(s.Description), nullString(s.Note),
		timex.FormatStorage(s.StartTime), timex.FormatStorage(s.EndTime),
		s.IsReminder, s.ReminderMinutes, string(s.Category), stamp, stamp,
	).Scan(&id)
	if err != nil {
		return 0, dbx.StoreError(err)
	}

	s.ID = id
	s.CreatedAt = ts
	s.UpdatedAt = ts
	return id, nil
}

// Update rewrites the mutable fields of s. A row owned by someone else is
// reported exactly like a missing one.
func (r *SQLRepository) Update(ctx context.Context, s *models.Schedule) error {
	query :=
		`UPDATE schedules SET title = ?, description = ?, note = ?, start_time = ?, end_time = ?,
			is_reminder = ?, reminder_minutes = ?, category = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`

	ts := timex.Truncate(r.now())

	res, err := r.db.ExecContext(ctx, r.q(query),
		s.Title, nullString(s.Description), nullString(s.Note),
		timex.FormatStorage(s.StartTime), timex.FormatStorage(s.EndTime),
		s.IsReminder, s.ReminderMinutes, string(s.Category), timex.FormatStorage(ts),
		s.ID, s.UserID,
	)
	if err := affectedOne(res, err); err != nil {
		return err
	}

	s.UpdatedAt = ts
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM schedules WHERE id = ? AND user_id = ?`), id, ownerID)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return dbx.StoreError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StoreError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.Schedule, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+columns+` FROM schedules WHERE id = ? AND user_id = ?`), id, ownerID)

	s, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StoreError(err)
	}
	return s, nil
}

func (r *SQLRepository) GetAllByUser(ctx context.Context, userID int64) ([]models.Schedule, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM schedules WHERE user_id = ? ORDER BY start_time ASC, id ASC`,
		userID)
}

// GetByDate returns the schedules whose start falls on the calendar day of date.
func (r *SQLRepository) GetByDate(ctx context.Context, userID int64, date time.Time) ([]models.Schedule, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM schedules
		 WHERE user_id = ? AND substr(start_time, 1, 10) = ?
		 ORDER BY start_time ASC, id ASC`,
		userID, timex.FormatDate(date))
}

// Search matches keyword as a case-insensitive substring of title, description
// or note, folding case with Unicode rules on both dialects. Results are
// newest first.
func (r *SQLRepository) Search(ctx context.Context, userID int64, keyword string) ([]models.Schedule, error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	lower := func(col string) string { return dbx.Lower(r.dialect, col) }
	return r.list(ctx,
		`SELECT `+columns+` FROM schedules
		 WHERE user_id = ? AND (
			`+lower("title")+` LIKE ? ESCAPE '\' OR
			`+lower("coalesce(description, '')")+` LIKE ? ESCAPE '\' OR
			`+lower("coalesce(note, '')")+` LIKE ? ESCAPE '\')
		 ORDER BY start_time DESC, id DESC`,
		userID, pattern, pattern, pattern)
}

// GetDueForReminder returns reminder-enabled schedules starting within
// [now, now+horizon].
func (r *SQLRepository) GetDueForReminder(ctx context.Context, userID int64, now time.Time, horizon time.Duration) ([]models.Schedule, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM schedules
		 WHERE user_id = ? AND is_reminder = ? AND start_time >= ? AND start_time <= ?
		 ORDER BY start_time ASC, id ASC`,
		userID, true, timex.FormatStorage(now), timex.FormatStorage(now.Add(horizon)))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]models.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, dbx.StoreError(err)
	}
	defer rows.Close()

	result := make([]models.Schedule, 0)
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, dbx.StoreError(err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StoreError(err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (*models.Schedule, error) {
	var (
		s                 models.Schedule
		description, note sql.NullString
		start, end        string
		created, updated  string
		category          string
	)

	err := sc.Scan(&s.ID, &s.UserID, &s.Title, &description, &note, &start, &end,
		&s.IsReminder, &s.ReminderMinutes, &category, &created, &updated)
	if err != nil {
		return nil, err
	}

	s.Description = description.String
	s.Note = note.String
	s.Category = models.Category(category)

	for _, f := range []struct {
		src string
		dst *time.Time
	}{
		{start, &s.StartTime},
		{end, &s.EndTime},
		{created, &s.CreatedAt},
		{updated, &s.UpdatedAt},
	} {
		if *f.dst, err = timex.ParseStorage(f.src); err != nil {
			return nil, err
		}
	}

	return &s, nil
}
