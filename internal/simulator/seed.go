package simulator

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedDemoData loads a small school into the memory backend so the simulator
// is usable straight after start. Login: admin@example.com / admin123.
func SeedDemoData(repo *MemoryRepository) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	repo.AddUser(User{
		ID:           uuid.NewString(),
		Email:        "admin@example.com",
		FullName:     "Demo Admin",
		PasswordHash: string(hash),
	})

	repo.AddSchool(School{ID: "school-1", Name: "Greenfield Academy", SubscriptionAmount: 120000})

	students := []Student{
		{ID: "student-1", SchoolID: "school-1", FullName: "Amara Okafor", StudentClass: "Class 1", Active: true, MonthlyRate: 1500},
		{ID: "student-2", SchoolID: "school-1", FullName: "Brian Kiptoo", StudentClass: "Class 2", Active: true, MonthlyRate: 0},
		{ID: "student-3", SchoolID: "school-1", FullName: "Chen Wei", StudentClass: "Class 2", Active: true, MonthlyRate: 1800},
		{ID: "student-4", SchoolID: "school-1", FullName: "Dalia Hassan", StudentClass: "Class 10", Active: true, MonthlyRate: 0},
		{ID: "student-5", SchoolID: "school-1", FullName: "Erik Johansson", StudentClass: "Class 10", Active: false, MonthlyRate: 1600},
	}
	for _, student := range students {
		repo.AddStudent(student)
	}
	return nil
}
