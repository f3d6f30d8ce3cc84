package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(""))
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("ADMIN"))

	mux := pat.New()

	// Auth
	mux.Post("/auth/sign_up", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/auth/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))

	// Profile
	mux.Get("/me", authMiddleware.ThenFunc(app.userHandler.Me))
	mux.Put("/me/availability", authMiddleware.ThenFunc(app.userHandler.SetAvailability))
	mux.Put("/me/fcm_token", authMiddleware.ThenFunc(app.userHandler.SetFCMToken))

	// Districts and pricing
	mux.Get("/districts", standardMiddleware.ThenFunc(app.districtHandler.GetActive))
	mux.Get("/pricing/quote", standardMiddleware.ThenFunc(app.pricingHandler.GetQuote))

	// Saved addresses
	mux.Post("/addresses", authMiddleware.ThenFunc(app.addressHandler.Create))
	mux.Get("/addresses", authMiddleware.ThenFunc(app.addressHandler.GetMine))

	// Service requests
	mux.Post("/service_requests", authMiddleware.ThenFunc(app.requestHandler.Create))
	mux.Get("/service_requests/mine", authMiddleware.ThenFunc(app.requestHandler.GetMine))
	mux.Get("/service_requests/available", authMiddleware.ThenFunc(app.requestHandler.GetAvailable))
	mux.Get("/service_requests/assigned", authMiddleware.ThenFunc(app.requestHandler.GetAssigned))
	mux.Get("/service_requests/:id", authMiddleware.ThenFunc(app.requestHandler.GetByID))
	mux.Post("/service_requests/:id/accept", authMiddleware.ThenFunc(app.requestHandler.Accept))
	mux.Post("/service_requests/:id/start", authMiddleware.ThenFunc(app.requestHandler.Start))
	mux.Post("/service_requests/:id/complete", authMiddleware.ThenFunc(app.requestHandler.Complete))
	mux.Post("/service_requests/:id/cancel", authMiddleware.ThenFunc(app.requestHandler.Cancel))
	mux.Post("/service_requests/:id/rating", authMiddleware.ThenFunc(app.requestHandler.Rate))
	mux.Get("/providers/:provider_id/ratings", authMiddleware.ThenFunc(app.requestHandler.GetProviderRatings))

	// Recurring requests
	mux.Post("/recurring_requests", authMiddleware.ThenFunc(app.recurringHandler.Create))
	mux.Get("/recurring_requests", authMiddleware.ThenFunc(app.recurringHandler.GetMine))
	mux.Del("/recurring_requests/:id", authMiddleware.ThenFunc(app.recurringHandler.Cancel))

	// Admin
	mux.Get("/admin/service_requests", adminAuthMiddleware.ThenFunc(app.adminHandler.GetAllRequests))
	mux.Put("/admin/service_requests/:id/status", adminAuthMiddleware.ThenFunc(app.adminHandler.SetRequestStatus))
	mux.Put("/admin/users/:id/verify", adminAuthMiddleware.ThenFunc(app.adminHandler.SetUserVerified))
	mux.Put("/admin/users/:id/block", adminAuthMiddleware.ThenFunc(app.adminHandler.SetUserBlocked))
	mux.Post("/admin/districts", adminAuthMiddleware.ThenFunc(app.districtHandler.Create))
	mux.Put("/admin/districts/:id/state", adminAuthMiddleware.ThenFunc(app.districtHandler.SetActive))
	mux.Post("/admin/districts/:id/pricing_rules", adminAuthMiddleware.ThenFunc(app.districtHandler.CreatePricingRule))
	mux.Put("/admin/pricing_rules/:rule_id", adminAuthMiddleware.ThenFunc(app.districtHandler.UpdatePricingRule))

	return mux
}
