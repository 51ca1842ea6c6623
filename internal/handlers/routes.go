package handlers

import (
	"github.com/go-chi/chi/v5"
	mW "github.com/shuttleclub/backend/internal/middleware"
	"github.com/shuttleclub/backend/internal/models"
)

// API groups the handlers mounted under /api.
type API struct {
	Sessions *SessionHandler
	Teams    *TeamHandler
	Payments *PaymentHandler
	Ledger   *LedgerHandler
}

// Mount registers every authenticated route with its role gate.
func (a *API) Mount(r chi.Router, auth *mW.Authenticator) {
	leads := mW.RequireRole(models.RoleLead, models.RoleAdmin)
	admins := mW.RequireRole(models.RoleAdmin)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/badminton-sessions", func(r chi.Router) {
			r.With(leads).Post("/", a.Sessions.Create)
			r.Get("/", a.Sessions.List)
			r.Get("/{id}", a.Sessions.Get)
			r.Put("/{id}", a.Sessions.Update)
			r.With(leads).Put("/{id}/confirm", a.Sessions.Confirm)
			r.With(leads).Put("/{id}/pay", a.Sessions.Pay)
		})

		r.Route("/badminton-teams", func(r chi.Router) {
			r.With(admins).Post("/", a.Teams.Create)
			r.With(leads).Post("/pay-shuttlecock", a.Teams.PayForShuttlecock)
			r.Get("/{id}", a.Teams.Get)
			r.With(leads).Patch("/{id}/add-fees", a.Teams.AddFees)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", a.Payments.Create)
			r.With(leads).Post("/user/{id}", a.Payments.CreateForMember)
			r.Get("/me", a.Payments.List)
			r.With(leads).Put("/{id}/accept", a.Payments.Accept)
			r.With(leads).Put("/{id}/reject", a.Payments.Reject)
			r.Get("/{id}/qr", a.Payments.QRCode)
		})

		r.Get("/transactions/me", a.Ledger.MyTransactions)
		r.Get("/transactions/groups", a.Ledger.GroupTransactions)
		r.Get("/members/balances", a.Ledger.MemberBalances)
		r.With(leads).Get("/members/{id}/transactions", a.Ledger.MemberTransactions)
	})
}
