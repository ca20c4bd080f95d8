package employee

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/peoplehub/hr-backoffice/internal"
)

// Employee is the HR master record workflow entities hang off. BasicSalary
// and HireDate feed the settlement calculator.
type Employee struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	UserID      int64           `json:"user_id" gorm:"column:user_id;uniqueIndex"`
	FullName    string          `json:"full_name" gorm:"column:full_name;not null"`
	Email       string          `json:"email" gorm:"column:email;not null"`
	Department  string          `json:"department" gorm:"column:department"`
	ManagerID   *int64          `json:"manager_id,omitempty" gorm:"column:manager_id"`
	HireDate    time.Time       `json:"hire_date" gorm:"column:hire_date;type:date;not null"`
	BasicSalary decimal.Decimal `json:"basic_salary" gorm:"column:basic_salary;type:numeric(12,2)"`
	IsActive    bool            `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt   time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}

var ErrEmployeeNotFound = internal.NewNotFoundError("employee not found", internal.ErrCodeEmployeeNotFound)
