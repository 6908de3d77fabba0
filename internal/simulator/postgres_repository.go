package simulator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists simulator data in PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const feeRowColumns = `f.id, f.school_id, f.student_id, f.month, f.total_fee, f.paid_amount, f.date_received, f.created_at,
        s.full_name AS student_name, s.student_class AS student_class`

func (r *PostgresRepository) ListFees(ctx context.Context, query FeeQuery) ([]FeeRow, error) {
	base := "FROM fees f JOIN students s ON s.id = f.student_id"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if query.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("f.school_id = $%d", len(args)+1))
		args = append(args, query.SchoolID)
	}
	if query.StudentClass != "" {
		conditions = append(conditions, fmt.Sprintf("s.student_class = $%d", len(args)+1))
		args = append(args, query.StudentClass)
	}
	if query.Month != "" {
		conditions = append(conditions, fmt.Sprintf("f.month = $%d", len(args)+1))
		args = append(args, query.Month)
	}

	sql := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY s.student_class ASC, s.full_name ASC",
		feeRowColumns, base, strings.Join(conditions, " AND "))

	var rows []FeeRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list fees: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetFee(ctx context.Context, id string) (*FeeRow, error) {
	sql := fmt.Sprintf("SELECT %s FROM fees f JOIN students s ON s.id = f.student_id WHERE f.id = $1", feeRowColumns)
	var row FeeRow
	if err := r.db.GetContext(ctx, &row, sql, id); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *PostgresRepository) FindFeeByStudentMonth(ctx context.Context, studentID, month string) (*FeeRow, error) {
	sql := fmt.Sprintf("SELECT %s FROM fees f JOIN students s ON s.id = f.student_id WHERE f.student_id = $1 AND f.month = $2", feeRowColumns)
	var row FeeRow
	if err := r.db.GetContext(ctx, &row, sql, studentID, month); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *PostgresRepository) CountFeesBySchoolMonth(ctx context.Context, schoolID, month string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM fees WHERE school_id = $1 AND month = $2", schoolID, month); err != nil {
		return 0, fmt.Errorf("count fees: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) DeleteFeesBySchoolMonth(ctx context.Context, schoolID, month string) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM fees WHERE school_id = $1 AND month = $2", schoolID, month)
	if err != nil {
		return 0, fmt.Errorf("delete fees by school and month: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *PostgresRepository) InsertFee(ctx context.Context, fee *Fee) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fees (id, school_id, student_id, month, total_fee, paid_amount, date_received, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		fee.ID, fee.SchoolID, fee.StudentID, fee.Month, fee.TotalFee, fee.PaidAmount, fee.DateReceived, fee.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fee: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveFeePayment(ctx context.Context, id string, paidAmount *float64, dateReceived *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fees SET paid_amount = COALESCE($2, paid_amount), date_received = COALESCE($3, date_received) WHERE id = $1`,
		id, paidAmount, dateReceived,
	)
	if err != nil {
		return fmt.Errorf("save fee payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("fee %s not found", id)
	}
	return nil
}

func (r *PostgresRepository) DeleteFees(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM fees WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("build delete query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete fees: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *PostgresRepository) ListStudents(ctx context.Context, schoolID string, activeOnly bool) ([]Student, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if schoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, schoolID)
	}
	if activeOnly {
		conditions = append(conditions, "active = TRUE")
	}

	sql := fmt.Sprintf(`SELECT id, school_id, full_name, student_class, active, monthly_rate
        FROM students WHERE %s ORDER BY student_class ASC, full_name ASC`, strings.Join(conditions, " AND "))

	var students []Student
	if err := r.db.SelectContext(ctx, &students, sql, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (r *PostgresRepository) GetStudent(ctx context.Context, id string) (*Student, error) {
	var student Student
	err := r.db.GetContext(ctx, &student,
		"SELECT id, school_id, full_name, student_class, active, monthly_rate FROM students WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *PostgresRepository) GetSchool(ctx context.Context, id string) (*School, error) {
	var school School
	err := r.db.GetContext(ctx, &school,
		"SELECT id, name, subscription_amount FROM schools WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user,
		"SELECT id, email, full_name, password_hash FROM users WHERE LOWER(email) = LOWER($1)", email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
