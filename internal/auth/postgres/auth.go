package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPasswordForEmail(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

// GetUserWithCapabilities loads the user, their capability names, and the id
// of the linked employee record (zero when none exists).
func (r *Repository) GetUserWithCapabilities(userID int64) (*auth.User, error) {
	var user auth.User

	query := `SELECT id, email FROM users WHERE id = ? AND is_active = true`
	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	capQuery := `SELECT c.name
	             FROM capabilities c
	             JOIN user_capabilities uc ON c.id = uc.capability_id
	             WHERE uc.user_id = ?`
	rows, err := r.db.Raw(capQuery, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		user.Capabilities = append(user.Capabilities, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	empRow := r.db.Raw(`SELECT id FROM employees WHERE user_id = ?`, userID).Row()
	var employeeID int64
	if err := empRow.Scan(&employeeID); err == nil {
		user.EmployeeID = employeeID
	}

	return &user, nil
}
