package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/auth"
)

type seedUser struct {
	Email        string
	Name         string
	Department   string
	BasicSalary  string
	Capabilities []string
}

var seedUsers = []seedUser{
	{Email: "admin@peoplehub.dev", Name: "Site Admin", Department: "IT", BasicSalary: "5000.00", Capabilities: []string{auth.CapAdmin}},
	{Email: "hr@peoplehub.dev", Name: "Hana Rahma", Department: "People", BasicSalary: "4200.00", Capabilities: []string{auth.CapHRManage, auth.CapManageTeam}},
	{Email: "gm@peoplehub.dev", Name: "Gita Maulida", Department: "Management", BasicSalary: "6000.00", Capabilities: []string{auth.CapApproveLoansGM, auth.CapManageTeam}},
	{Email: "finance@peoplehub.dev", Name: "Fikri Nanda", Department: "Finance", BasicSalary: "4500.00", Capabilities: []string{auth.CapApproveLoansFin, auth.CapFinanceManage, auth.CapManageLoans}},
	{Email: "itops@peoplehub.dev", Name: "Indra Tama", Department: "IT", BasicSalary: "3800.00", Capabilities: []string{auth.CapManageAssets}},
	{Email: "staff@peoplehub.dev", Name: "Sari Utami", Department: "Engineering", BasicSalary: "3000.00", Capabilities: nil},
}

var seedAssets = [][2]string{
	{"LT-0001", "MacBook Pro 14"},
	{"LT-0002", "ThinkPad X1 Carbon"},
	{"MN-0001", "Dell U2723QE Monitor"},
	{"PH-0001", "iPhone 15"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			fmt.Println("clearing existing data...")
			for _, table := range []string{
				"audit_events", "loan_payments", "settlements", "resignations",
				"loans", "asset_assignments", "assets", "user_capabilities",
				"capabilities", "employees", "users",
			} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

		for _, cap := range []string{
			auth.CapAdmin, auth.CapManageAssets, auth.CapManageTeam, auth.CapManageLoans,
			auth.CapApproveLoansGM, auth.CapApproveLoansFin, auth.CapHRManage, auth.CapFinanceManage,
		} {
			if err := db.Exec(
				"INSERT INTO capabilities (name, created_at) VALUES (?, now()) ON CONFLICT (name) DO NOTHING", cap,
			).Error; err != nil {
				log.Fatalf("failed to seed capability %s: %v", cap, err)
			}
		}

		for _, u := range seedUsers {
			var exists int
			if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; skipping\n", u.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())",
				u.Email, u.Name, string(hash),
			).Error; err != nil {
				log.Fatalf("failed to seed user %s: %v", u.Email, err)
			}

			if err := db.Exec(
				`INSERT INTO employees (user_id, full_name, email, department, hire_date, basic_salary, is_active, created_at, updated_at)
				 SELECT id, ?, ?, ?, now() - interval '3 years', ?, true, now(), now() FROM users WHERE email = ?`,
				u.Name, u.Email, u.Department, u.BasicSalary, u.Email,
			).Error; err != nil {
				log.Fatalf("failed to seed employee for %s: %v", u.Email, err)
			}

			for _, cap := range u.Capabilities {
				if err := db.Exec(
					`INSERT INTO user_capabilities (user_id, capability_id)
					 SELECT u.id, c.id FROM users u, capabilities c WHERE u.email = ? AND c.name = ?
					 ON CONFLICT DO NOTHING`,
					u.Email, cap,
				).Error; err != nil {
					log.Fatalf("failed to grant %s to %s: %v", cap, u.Email, err)
				}
			}

			fmt.Printf("seeded user %s\n", u.Email)
		}

		for _, a := range seedAssets {
			if err := db.Exec(
				`INSERT INTO assets (tag, name, category, is_retired, created_at, updated_at)
				 VALUES (?, ?, 'hardware', false, now(), now()) ON CONFLICT (tag) DO NOTHING`,
				a[0], a[1],
			).Error; err != nil {
				log.Fatalf("failed to seed asset %s: %v", a[0], err)
			}
		}

		fmt.Println("seeding complete (password for all users: \"password\")")
	},
}
