package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib"
	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/senders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service, feed *senders.Feed) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc, feed)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Sugar().Errorw("HTTP server stopped", "err", err)
				}
			}()
			log.Sugar().Infof("Listening on %s", addr)
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service, feed *senders.Feed) http.Handler {
	ctrl := &controller{log, svc, feed}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("buzdealz", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/session", func(r chi.Router) {
			r.Get("/", ctrl.viewSession)
			r.Post("/login", ctrl.login)
			r.Post("/register", ctrl.register)
			r.Post("/logout", ctrl.logout)
		})
		r.Route("/deals", func(r chi.Router) {
			r.Get("/", ctrl.listDeals)
			r.Get("/{deal_id}", ctrl.viewDeal)
		})
		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", ctrl.listWishlist)
			r.Post("/", ctrl.addToWishlist)
			r.Delete("/{deal_id}", ctrl.removeFromWishlist)
			r.Post("/{deal_id}/alert", ctrl.toggleAlert)
		})
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", ctrl.listNotifications)
			r.Post("/read", ctrl.markNotificationsRead)
		})
		r.Get("/notices", ctrl.drainNotices)
	})

	return r
}

type controller struct {
	log  *zap.Logger
	svc  *lib.Service
	feed *senders.Feed
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

// fail maps a store error to a status code.
func (ctrl *controller) fail(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, models.ErrAuthRequired):
		ctrl.reject(w, http.StatusUnauthorized, err)
	case errors.Is(err, models.ErrSubscriberOnly):
		ctrl.reject(w, http.StatusForbidden, err)
	case errors.Is(err, models.ErrNotInWishlist), errors.Is(err, models.ErrDealNotFound):
		ctrl.reject(w, http.StatusNotFound, err)
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrRejected):
		ctrl.reject(w, http.StatusBadRequest, err)
	case errors.As(err, &apiErr):
		ctrl.reject(w, http.StatusBadGateway, err)
	default:
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
		ctrl.reject(w, http.StatusInternalServerError, err)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(b)
	}
}

func (ctrl *controller) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ctrl.reject(w, http.StatusBadRequest, fmt.Errorf("malformed body: %w", err))
		return false
	}
	return true
}

func (ctrl *controller) viewSession(w http.ResponseWriter, r *http.Request) {
	ctrl.resolve(w, http.StatusOK, SessionView{}.From(ctrl.svc.Session.User()))
}

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerForm struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (ctrl *controller) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if !ctrl.decode(w, r, &form) {
		return
	}
	if err := ctrl.svc.Session.Login(r.Context(), form.Email, form.Password); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SessionView{}.From(ctrl.svc.Session.User()))
}

func (ctrl *controller) register(w http.ResponseWriter, r *http.Request) {
	var form registerForm
	if !ctrl.decode(w, r, &form) {
		return
	}
	if err := ctrl.svc.Session.Register(r.Context(), form.Email, form.Password, form.ConfirmPassword); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, map[string]any{"success": true})
}

func (ctrl *controller) logout(w http.ResponseWriter, r *http.Request) {
	if err := ctrl.svc.Session.Logout(r.Context()); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SessionView{})
}

// listDeals serves the cached catalog. A failed refresh is reported in the
// body next to whatever deals are still cached, unless nothing is cached.
func (ctrl *controller) listDeals(w http.ResponseWriter, r *http.Request) {
	catalog := ctrl.svc.Catalog
	if r.URL.Query().Get("refresh") != "" || len(catalog.Deals()) == 0 {
		if err := catalog.Refresh(r.Context()); err != nil && len(catalog.Deals()) == 0 {
			ctrl.fail(w, err)
			return
		}
	}

	views := FromMany[models.Deal, DealView](catalog.Deals())
	for i := range views {
		views[i].InWishlist = ctrl.svc.Wishlist.IsInWishlist(views[i].ID)
	}
	body := map[string]any{
		"deals":   views,
		"loading": catalog.Loading(),
		"status":  catalog.Status().String(),
		"error":   nil,
	}
	if err := catalog.Err(); err != nil {
		body["error"] = api.Message(err, "Failed to load deals")
	}
	ctrl.resolve(w, http.StatusOK, body)
}

func (ctrl *controller) viewDeal(w http.ResponseWriter, r *http.Request) {
	deal, saved, err := ctrl.svc.DealDetail(chi.URLParam(r, "deal_id"))
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	view := DealView{}.From(deal)
	view.InWishlist = saved
	ctrl.resolve(w, http.StatusOK, view)
}

func (ctrl *controller) listWishlist(w http.ResponseWriter, r *http.Request) {
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"items":   FromMany[models.WishlistItem, WishlistItemView](ctrl.svc.Wishlist.Items()),
		"loading": ctrl.svc.Wishlist.Loading(),
	})
}

type addForm struct {
	DealID string `json:"dealId"`
}

func (ctrl *controller) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var form addForm
	if !ctrl.decode(w, r, &form) {
		return
	}
	if form.DealID == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("dealId is required"))
		return
	}
	if err := ctrl.svc.AddDeal(r.Context(), form.DealID); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.listWishlist(w, r)
}

func (ctrl *controller) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	if err := ctrl.svc.Wishlist.Remove(r.Context(), chi.URLParam(r, "deal_id")); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.listWishlist(w, r)
}

func (ctrl *controller) toggleAlert(w http.ResponseWriter, r *http.Request) {
	if err := ctrl.svc.Wishlist.ToggleAlert(r.Context(), chi.URLParam(r, "deal_id")); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.listWishlist(w, r)
}

func (ctrl *controller) listNotifications(w http.ResponseWriter, r *http.Request) {
	n := ctrl.svc.Notifications
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"notifications": FromMany[models.Notification, NotificationView](n.Notifications()),
		"unreadCount":   n.UnreadCount(),
		"loading":       n.Loading(),
	})
}

func (ctrl *controller) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := ctrl.svc.Notifications.MarkAllRead(r.Context()); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.listNotifications(w, r)
}

func (ctrl *controller) drainNotices(w http.ResponseWriter, r *http.Request) {
	ctrl.resolve(w, http.StatusOK, ctrl.feed.Drain())
}
