package main

import (
	"database/sql"
	"log"
	"net/http"

	"firebase.google.com/go/messaging"
	_ "github.com/go-sql-driver/mysql"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/handlers"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/metrics"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/repositories"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/utils"
)

type application struct {
	errorLog   *log.Logger
	infoLog    *log.Logger
	db         *sql.DB
	signingKey string

	userService      *services.UserService
	requestService   *services.ServiceRequestService
	recurringService *services.RecurringRequestService

	userHandler      *handlers.UserHandler
	requestHandler   *handlers.ServiceRequestHandler
	recurringHandler *handlers.RecurringRequestHandler
	pricingHandler   *handlers.PricingHandler
	districtHandler  *handlers.DistrictHandler
	addressHandler   *handlers.UserAddressHandler
	adminHandler     *handlers.AdminHandler
}

func initializeApp(db *sql.DB, fcmClient *messaging.Client, sink metrics.Sink, signingKey string,
	tokenManager *utils.Manager, errorLog, infoLog *log.Logger) *application {

	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	requestRepo := repositories.ServiceRequestRepository{DB: db}
	ratingRepo := repositories.RatingRepository{DB: db}
	recurringRepo := repositories.RecurringRequestRepository{DB: db}
	districtRepo := repositories.DistrictRepository{DB: db}
	pricingRuleRepo := repositories.PricingRuleRepository{DB: db}
	addressRepo := repositories.UserAddressRepository{DB: db}

	// Services
	pushService := &services.PushService{Client: fcmClient, Metrics: sink, ErrorLog: errorLog}
	pricingService := &services.PricingService{Districts: &districtRepo, Rules: &pricingRuleRepo}
	requestService := &services.ServiceRequestService{
		Requests:  &requestRepo,
		Ratings:   &ratingRepo,
		Users:     &userRepo,
		Addresses: &addressRepo,
		Districts: &districtRepo,
		Pricing:   pricingService,
		Push:      pushService,
	}
	recurringService := &services.RecurringRequestService{
		Recurring: &recurringRepo,
		Users:     &userRepo,
		Districts: &districtRepo,
		Requests:  requestService,
		ErrorLog:  errorLog,
		InfoLog:   infoLog,
	}
	userService := &services.UserService{
		Users:        &userRepo,
		Districts:    &districtRepo,
		TokenManager: tokenManager,
		SigningKey:   signingKey,
	}
	districtService := &services.DistrictService{Districts: &districtRepo, Rules: &pricingRuleRepo}
	addressService := &services.UserAddressService{Addresses: &addressRepo}

	return &application{
		errorLog:         errorLog,
		infoLog:          infoLog,
		db:               db,
		signingKey:       signingKey,
		userService:      userService,
		requestService:   requestService,
		recurringService: recurringService,
		userHandler:      &handlers.UserHandler{Service: userService},
		requestHandler:   &handlers.ServiceRequestHandler{Service: requestService},
		recurringHandler: &handlers.RecurringRequestHandler{Service: recurringService},
		pricingHandler:   &handlers.PricingHandler{Service: pricingService},
		districtHandler:  &handlers.DistrictHandler{Service: districtService},
		addressHandler:   &handlers.UserAddressHandler{Service: addressService},
		adminHandler:     &handlers.AdminHandler{Requests: requestService, Users: userService},
	}
}

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.errorLog.Println(err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
