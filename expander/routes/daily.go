package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"expander/expander/config"
	"expander/expander/controllers"
	"expander/expander/middlewares"

	"github.com/go-chi/chi/v5"
)

func DailyRoutes(ctrl *controllers.DailyController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	// POST /daily/summary/{date} : generate the summary for one day
	r.Post("/summary/{date}", func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.GenerateSummary(r.Context(), chi.URLParam(r, "date")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// POST /daily/summaries/backfill : summarize every pending day in order
	r.Post("/summaries/backfill", func(w http.ResponseWriter, r *http.Request) {
		ctrl.GenerateMissingSummaries(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})

	// POST /daily/summary/regenerate/{conversation_id}
	r.Post("/summary/regenerate/{conversation_id}", func(w http.ResponseWriter, r *http.Request) {
		err := ctrl.RegenerateSummary(r.Context(), chi.URLParam(r, "conversation_id"))
		if err != nil {
			if errors.Is(err, controllers.ErrConversationNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// GET /daily/morning-message
	r.Get("/morning-message", func(w http.ResponseWriter, r *http.Request) {
		message, err := ctrl.MorningMessage(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": message})
	})

	// GET /daily/status : whether a generation is running right now
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"processing": ctrl.IsProcessing()})
	})

	// POST /daily/reset : clear a stuck processing flag
	r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
		ctrl.ResetProcessing()
		w.WriteHeader(http.StatusNoContent)
	})

	// POST /daily/export/{date} : archive a day's transcript to object storage
	r.Post("/export/{date}", func(w http.ResponseWriter, r *http.Request) {
		resp, err := ctrl.ExportTranscript(r.Context(), chi.URLParam(r, "date"))
		if err != nil {
			switch {
			case errors.Is(err, controllers.ErrNothingToExport):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, controllers.ErrInvalidDate):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		json.NewEncoder(w).Encode(resp)
	})

	return r
}
