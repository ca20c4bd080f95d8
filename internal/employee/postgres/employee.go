package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/employee"
)

// EmployeeRepository implements employee.Repository using GORM.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.Repository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	var emp employee.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) GetByUserID(ctx context.Context, userID int64) (*employee.Employee, error) {
	var emp employee.Employee
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) EmailForEmployee(ctx context.Context, employeeID int64) (string, error) {
	emp, err := r.GetByID(ctx, employeeID)
	if err != nil {
		return "", err
	}
	return emp.Email, nil
}

func (r *EmployeeRepository) List(ctx context.Context, limit, offset int) ([]*employee.Employee, error) {
	var employees []*employee.Employee
	err := r.db.WithContext(ctx).
		Order("full_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&employees).Error
	return employees, err
}

func (r *EmployeeRepository) Create(ctx context.Context, emp *employee.Employee) error {
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now
	return r.db.WithContext(ctx).Create(emp).Error
}
