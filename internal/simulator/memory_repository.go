package simulator

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is the in-memory simulator backend. Missing rows are
// reported as sql.ErrNoRows so the service treats both backends alike.
type MemoryRepository struct {
	mu       sync.RWMutex
	schools  map[string]School
	students map[string]Student
	fees     map[string]Fee
	users    map[string]User
}

// NewMemoryRepository returns an empty in-memory backend.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		schools:  make(map[string]School),
		students: make(map[string]Student),
		fees:     make(map[string]Fee),
		users:    make(map[string]User),
	}
}

// AddSchool seeds a school.
func (r *MemoryRepository) AddSchool(s School) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schools[s.ID] = s
}

// AddStudent seeds a student.
func (r *MemoryRepository) AddStudent(s Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[s.ID] = s
}

// AddUser seeds a login account.
func (r *MemoryRepository) AddUser(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[strings.ToLower(u.Email)] = u
}

func (r *MemoryRepository) ListFees(ctx context.Context, query FeeQuery) ([]FeeRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FeeRow, 0)
	for _, fee := range r.fees {
		student, ok := r.students[fee.StudentID]
		if !ok {
			continue
		}
		if query.SchoolID != "" && fee.SchoolID != query.SchoolID {
			continue
		}
		if query.StudentClass != "" && student.StudentClass != query.StudentClass {
			continue
		}
		if query.Month != "" && fee.Month != query.Month {
			continue
		}
		out = append(out, r.rowLocked(fee))
	}
	return out, nil
}

func (r *MemoryRepository) GetFee(ctx context.Context, id string) (*FeeRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fee, ok := r.fees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	row := r.rowLocked(fee)
	return &row, nil
}

func (r *MemoryRepository) FindFeeByStudentMonth(ctx context.Context, studentID, month string) (*FeeRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fee := range r.fees {
		if fee.StudentID == studentID && fee.Month == month {
			row := r.rowLocked(fee)
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *MemoryRepository) CountFeesBySchoolMonth(ctx context.Context, schoolID, month string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, fee := range r.fees {
		if fee.SchoolID == schoolID && fee.Month == month {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) DeleteFeesBySchoolMonth(ctx context.Context, schoolID, month string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, fee := range r.fees {
		if fee.SchoolID == schoolID && fee.Month == month {
			delete(r.fees, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepository) InsertFee(ctx context.Context, fee *Fee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fees[fee.ID] = *fee
	return nil
}

func (r *MemoryRepository) SaveFeePayment(ctx context.Context, id string, paidAmount *float64, dateReceived *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fee, ok := r.fees[id]
	if !ok {
		return sql.ErrNoRows
	}
	if paidAmount != nil {
		fee.PaidAmount = *paidAmount
	}
	if dateReceived != nil {
		fee.DateReceived = dateReceived
	}
	r.fees[id] = fee
	return nil
}

func (r *MemoryRepository) DeleteFees(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := r.fees[id]; ok {
			delete(r.fees, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepository) ListStudents(ctx context.Context, schoolID string, activeOnly bool) ([]Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Student, 0)
	for _, student := range r.students {
		if schoolID != "" && student.SchoolID != schoolID {
			continue
		}
		if activeOnly && !student.Active {
			continue
		}
		out = append(out, student)
	}
	return out, nil
}

func (r *MemoryRepository) GetStudent(ctx context.Context, id string) (*Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	student, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (r *MemoryRepository) GetSchool(ctx context.Context, id string) (*School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	school, ok := r.schools[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &school, nil
}

func (r *MemoryRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryRepository) rowLocked(fee Fee) FeeRow {
	row := FeeRow{Fee: fee}
	if student, ok := r.students[fee.StudentID]; ok {
		row.StudentName = student.FullName
		row.StudentClass = student.StudentClass
	}
	return row
}
