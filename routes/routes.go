package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/trucoapp/tournament-manager/handlers"
	"github.com/trucoapp/tournament-manager/middleware"
	"github.com/trucoapp/tournament-manager/models"
)

// SetupRoutes wires the whole HTTP surface. The public group carries the QR
// payment flow (form, submission, checkout, webhook); everything that touches
// the registry requires an admin token.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	paymentHandler *handlers.PaymentHandler,
	recordHandler *handlers.RecordHandler,
	checkoutHandler *handlers.CheckoutHandler,
	exportHandler *handlers.ExportHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	// The payment form is opened from a QR scan and lives on another origin
	// than the API.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	adminOnly := middleware.Authorize(models.RoleAdmin)

	// Public surface.
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/api/payment-form/{ticketID}", recordHandler.PaymentForm)
	router.Post("/api/records", recordHandler.SubmitRegistration)
	router.Get("/api/records/ticket/{ticketID}", recordHandler.RecordStatus)

	router.Post("/api/create-preference", checkoutHandler.CreatePreference)
	router.Post("/api/webhook/mercadopago", checkoutHandler.Webhook)
	router.Get("/pago/exitoso", checkoutHandler.PaymentSuccess)
	router.Get("/pago/fallido", checkoutHandler.PaymentFailure)
	router.Get("/pago/pendiente", checkoutHandler.PaymentPending)

	// The websocket handler authenticates inside the upgrade because browsers
	// cannot send an Authorization header on it.
	router.Get("/ws/admin", webSocketHandler.ServeAdmin)

	// Any authenticated account.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/auth/me", authHandler.Me)
	})

	// Admin registry.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Route("/api/players", func(r chi.Router) {
			r.Get("/", playerHandler.List)
			r.Post("/", playerHandler.Create)
			r.Get("/{id}", playerHandler.Get)
			r.Put("/{id}", playerHandler.Update)
			r.Delete("/{id}", playerHandler.Delete)
		})

		r.Route("/api/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.List)
			r.Post("/", tournamentHandler.Create)
			r.Get("/{id}", tournamentHandler.Get)
			r.Put("/{id}", tournamentHandler.Update)
			r.Delete("/{id}", tournamentHandler.Delete)

			r.Get("/{id}/participants", tournamentHandler.ListParticipants)
			r.Post("/{id}/participants/{playerID}", tournamentHandler.AddParticipant)
			r.Delete("/{id}/participants/{playerID}", tournamentHandler.RemoveParticipant)
		})

		r.Route("/api/matches", func(r chi.Router) {
			r.Get("/", matchHandler.List)
			r.Post("/", matchHandler.Create)
			r.Get("/{id}", matchHandler.Get)
			r.Put("/{id}", matchHandler.Update)
			r.Delete("/{id}", matchHandler.Delete)
		})

		r.Route("/api/payments", func(r chi.Router) {
			r.Get("/", paymentHandler.List)
			r.Post("/", paymentHandler.Create)
			r.Get("/{id}", paymentHandler.Get)
			r.Put("/{id}", paymentHandler.Update)
			r.Delete("/{id}", paymentHandler.Delete)
		})

		r.Put("/api/admin/users/{id}/role", authHandler.UpdateUserRole)

		r.Post("/api/tickets", recordHandler.IssueTicket)
		r.Get("/api/tickets/{ticketID}/qr", recordHandler.TicketQR)

		r.Route("/api/admin/records", func(r chi.Router) {
			r.Get("/", recordHandler.List)
			r.Get("/{id}", recordHandler.Get)
			r.Post("/{id}/confirm", recordHandler.Confirm)
			r.Post("/{id}/reject", recordHandler.Reject)
		})

		r.Get("/api/export", exportHandler.ExportJSON)
		r.Post("/api/import", exportHandler.ImportJSON)
		r.Get("/api/export/payments.csv", exportHandler.ExportPaymentsCSV)
		r.Get("/api/export/players.csv", exportHandler.ExportPlayersCSV)
		r.Get("/api/export/tournaments.csv", exportHandler.ExportTournamentsCSV)
		r.Get("/api/export/matches.csv", exportHandler.ExportMatchesCSV)
		r.Get("/api/export/records.csv", exportHandler.ExportRecordsCSV)

		r.Get("/api/dashboard/stats", dashboardHandler.Stats)
		r.Get("/api/dashboard/revenues", dashboardHandler.TournamentRevenues)
	})
}
