package handler

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/config"
	"github.com/mynurseshift/backend/internal/domain"
	"go.uber.org/zap"
)

// Store is everything the HTTP layer reads or writes besides what the auth
// components already cover.
type Store interface {
	auth.AccountStore

	Ping(ctx context.Context) error
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
	DashboardStats(ctx context.Context, serviceID *int64) (*domain.DashboardStats, error)

	ListPoles(ctx context.Context) ([]*domain.Pole, error)
	GetPoleByID(ctx context.Context, id int64) (*domain.Pole, error)
	CreatePole(ctx context.Context, pole *domain.Pole) error
	UpdatePole(ctx context.Context, pole *domain.Pole) error
	DeletePole(ctx context.Context, id int64) error

	ListServices(ctx context.Context, poleID *int64) ([]*domain.Service, error)
	GetServiceByID(ctx context.Context, id int64) (*domain.Service, error)
	CreateService(ctx context.Context, service *domain.Service) error
	UpdateService(ctx context.Context, service *domain.Service) error
	DeleteService(ctx context.Context, id int64) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	store      Store
	translator ut.Translator
	logger     *zap.Logger

	verifier      *auth.Verifier
	authenticator *auth.Authenticator
	gate          *auth.Gate
	lifecycle     *auth.Lifecycle

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, store Store, notifier auth.Notifier, resets auth.ResetStore, logger *zap.Logger) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewVerifier(store, tokens, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	gate := auth.NewGate(store)

	return &Handler{
		validate:   validate,
		config:     cfg,
		store:      store,
		translator: trans,
		logger:     logger,

		verifier:      verifier,
		authenticator: auth.NewAuthenticator(store, tokens),
		gate:          gate,
		lifecycle: auth.NewLifecycle(store, gate, notifier, resets, logger, auth.LifecycleConfig{
			BcryptCost:  cfg.Auth.BcryptCost,
			ResetTTL:    cfg.ResetTTL(),
			PhoneRegion: cfg.Account.PhoneRegion,
		}),

		Mux: chi.NewRouter(),
	}, nil
}

// jsonFieldName makes validation messages use the JSON field names.
func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Health)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/register", h.Register)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	managers := []domain.Role{domain.RoleManager, domain.RoleSuperAdministrator}

	h.Mux.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/", h.UpdateMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole(managers...)).Get("/", h.ListUsers)
			r.With(h.RequiredRole(managers...)).Get("/pending", h.ListPendingUsers)
			r.With(h.RequiredRole(managers...)).Post("/", h.CreateUser)
			r.Route("/{id}", func(r chi.Router) {
				r.With(h.accountInfo).Get("/", h.GetUser)
				r.With(h.accountInfo, h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)

				r.Group(func(r chi.Router) {
					r.Use(h.RequiredRole(managers...))
					r.Use(h.accountInfo)

					r.With(h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
					r.With(h.preventOperateInitialAdmin).Post("/decision", h.DecideUser)
					r.Patch("/password", h.SetUserPassword)
					r.Post("/notifications", h.NotifyUser)
				})
			})
		})

		r.Route("/poles", func(r chi.Router) {
			r.Get("/", h.ListPoles)
			r.With(h.RequiredRole(managers...)).Post("/", h.CreatePole)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPole)
				r.With(h.RequiredRole(managers...)).Patch("/", h.UpdatePole)
				r.With(h.RequiredRole(domain.RoleSuperAdministrator)).Delete("/", h.DeletePole)
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", h.ListServices)
			r.With(h.RequiredRole(managers...)).Post("/", h.CreateService)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetService)
				r.With(h.RequiredRole(managers...)).Patch("/", h.UpdateService)
				r.With(h.RequiredRole(domain.RoleSuperAdministrator)).Delete("/", h.DeleteService)
			})
		})

		r.With(h.RequiredRole(managers...)).Get("/dashboard/stats", h.GetDashboardStats)
	})
}
