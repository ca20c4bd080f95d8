package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"

	"github.com/peoplehub/hr-backoffice/internal/asset"
	"github.com/peoplehub/hr-backoffice/internal/assignment"
	"github.com/peoplehub/hr-backoffice/internal/audit"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/employee"
	"github.com/peoplehub/hr-backoffice/internal/loan"
	"github.com/peoplehub/hr-backoffice/internal/resignation"
	"github.com/peoplehub/hr-backoffice/internal/settlement"
	"github.com/peoplehub/hr-backoffice/internal/transport/middleware"
	"github.com/peoplehub/hr-backoffice/internal/transport/swagger"
)

// Handlers bundles every mounted handler so RegisterAllRoutes stays readable.
type Handlers struct {
	Auth        *auth.Handler
	Employee    *employee.Handler
	Asset       *asset.Handler
	Assignment  *assignment.Handler
	Loan        *loan.Handler
	Resignation *resignation.Handler
	Settlement  *settlement.Handler
	Audit       *audit.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/employees/me", h.Employee.Me)
			pr.Get("/employees/{id}", h.Employee.GetEmployee)
			pr.Group(func(hr chi.Router) {
				hr.Use(middleware.RequireCapabilities(auth.CapHRManage, auth.CapManageTeam))
				hr.Get("/employees", h.Employee.ListEmployees)
			})

			pr.Route("/assets", func(ar chi.Router) {
				ar.Get("/", h.Asset.ListAssets)
				ar.Get("/{id}", h.Asset.GetAsset)

				ar.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireCapabilities(auth.CapManageAssets))
					mr.Post("/", h.Asset.RegisterAsset)
					mr.Patch("/{id}/retire", h.Asset.RetireAsset)
				})
			})

			pr.Route("/assignments", func(ar chi.Router) {
				ar.Get("/mine", h.Assignment.MyAssignments)
				ar.Get("/{id}", h.Assignment.GetAssignment)

				// employee-side confirmations; ownership is enforced by the
				// workflow, not by a capability
				ar.Patch("/{id}/approve", h.Assignment.ApproveAssignment)
				ar.Patch("/{id}/reject", h.Assignment.RejectAssignment)
				ar.Patch("/{id}/confirm-return", h.Assignment.ConfirmReturn)

				ar.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireCapabilities(auth.CapManageAssets))
					mr.Get("/", h.Assignment.ListAssignments)
					mr.Post("/", h.Assignment.CreateAssignment)
					mr.Patch("/{id}/request-return", h.Assignment.RequestReturn)
				})
			})

			pr.Route("/loans", func(lr chi.Router) {
				lr.Post("/", h.Loan.ApplyLoan)
				lr.Get("/mine", h.Loan.MyLoans)
				lr.Get("/{id}", h.Loan.GetLoan)
				lr.Patch("/{id}/cancel", h.Loan.CancelLoan)

				lr.Group(func(gr chi.Router) {
					gr.Use(middleware.RequireCapabilities(auth.CapApproveLoansGM, auth.CapManageLoans))
					gr.Patch("/{id}/gm-approve", h.Loan.GMApprove)
					gr.Patch("/{id}/gm-reject", h.Loan.GMReject)
				})

				lr.Group(func(fr chi.Router) {
					fr.Use(middleware.RequireCapabilities(auth.CapApproveLoansFin, auth.CapManageLoans))
					fr.Patch("/{id}/finance-approve", h.Loan.FinanceApprove)
					fr.Patch("/{id}/finance-reject", h.Loan.FinanceReject)
				})

				lr.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireCapabilities(auth.CapManageLoans))
					mr.Get("/", h.Loan.ListLoans)
					mr.Get("/{id}/payments", h.Loan.ListPayments)
					mr.Post("/{id}/payments", h.Loan.RecordPayment)
					mr.Post("/{id}/payments/skip", h.Loan.SkipInstallment)
				})
			})

			pr.Route("/resignations", func(rr chi.Router) {
				rr.Post("/", h.Resignation.SubmitResignation)
				rr.Get("/{id}", h.Resignation.GetResignation)
				rr.Patch("/{id}/cancel", h.Resignation.CancelResignation)

				// stage-level authorization lives in the workflow guard; the
				// route gate only keeps plain employees out
				rr.Group(func(mr chi.Router) {
					mr.Use(middleware.RequireCapabilities(auth.CapManageTeam, auth.CapHRManage, auth.CapFinanceManage))
					mr.Get("/", h.Resignation.ListResignations)
					mr.Patch("/{id}/approve", h.Resignation.ApproveResignation)
					mr.Patch("/{id}/reject", h.Resignation.RejectResignation)
				})
			})

			pr.Route("/settlements", func(sr chi.Router) {
				sr.Get("/{id}", h.Settlement.GetSettlement)

				sr.Group(func(hr chi.Router) {
					hr.Use(middleware.RequireCapabilities(auth.CapHRManage, auth.CapFinanceManage))
					hr.Get("/", h.Settlement.ListSettlements)
					hr.Post("/", h.Settlement.CreateSettlement)
					hr.Patch("/{id}/approve", h.Settlement.ApproveSettlement)
					hr.Patch("/{id}/reject", h.Settlement.RejectSettlement)
					hr.Get("/clearance/{employee_id}", h.Settlement.CheckClearance)
				})

				sr.Group(func(fr chi.Router) {
					fr.Use(middleware.RequireCapabilities(auth.CapFinanceManage))
					fr.Patch("/{id}/mark-paid", h.Settlement.MarkPaid)
				})
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireCapabilities(auth.CapHRManage, auth.CapFinanceManage))
				ar.Get("/audit/{entity_type}/{id}", h.Audit.ListEntityTrail)
			})
		})
	})
}
