package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fiffu/noticewatch/config"
	"github.com/fiffu/noticewatch/lib/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("noticewatch", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/recipients", func(r chi.Router) {
			r.Post("/", ctrl.registerRecipient)
			r.Put("/{recipient_id}/keywords", ctrl.updateKeywords)
		})
		r.Route("/sources", func(r chi.Router) {
			r.Get("/", ctrl.listSources)
			r.Post("/", ctrl.upsertSource)
		})
		r.Get("/notices/{source_id}", ctrl.listNotices)
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "error", err)
		return
	} else {
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func (ctrl *controller) registerRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	platform := r.FormValue("platform")
	address := r.FormValue("address")
	department := r.FormValue("department")

	if platform == "" {
		ctrl.reject(w, 400, errors.New("Platform is required"))
		return
	}
	if address == "" {
		ctrl.reject(w, 400, errors.New("Address is required"))
		return
	}

	recipient, err := ctrl.svc.RegisterRecipient(ctx, platform, address, department)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusAccepted, RecipientView{}.From(recipient))
}

func (ctrl *controller) updateKeywords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipientID := chi.URLParam(r, "recipient_id")

	var body struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ctrl.reject(w, 400, err)
		return
	}

	recipient, err := ctrl.svc.UpdateKeywords(ctx, parseInt(recipientID), body.Keywords)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, RecipientView{}.From(recipient))
}

func (ctrl *controller) listNotices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceID := chi.URLParam(r, "source_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notices, err := ctrl.svc.ListNotices(ctx, sourceID, limit)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Notice, NoticeView](notices))
}

func (ctrl *controller) upsertSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.FormValue("id")
	name := r.FormValue("name")
	endpoint := r.FormValue("endpoint")
	routing := r.FormValue("routing")

	src, err := ctrl.svc.UpsertSource(ctx, id, name, endpoint, routing)
	if err != nil {
		ctrl.reject(w, 400, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SourceView{}.From(src))
}

func (ctrl *controller) listSources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sources, err := ctrl.svc.ListSources(ctx)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Source, SourceView](sources))
}

func parseInt(s string) uint {
	u, _ := strconv.ParseUint(s, 10, 64)
	return uint(u)
}
