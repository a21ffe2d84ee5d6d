package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/utils/errutil"
)

type statisticsResponse struct {
	Statistics []*model.RiskStatistics `json:"statistics"`
}

func listStatisticsHandler(uc StatisticsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := uc.List(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, r, http.StatusOK, statisticsResponse{Statistics: nonNil(records)})
	}
}

func riskStatisticsHandler(uc StatisticsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		riskID := types.RiskID(chi.URLParam(r, "riskID"))
		if err := riskID.Validate(); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		records, err := uc.ListByRisk(r.Context(), riskID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		if len(records) == 0 {
			errutil.HandleHTTP(r.Context(), w, goerr.New("no statistics for risk", goerr.V("risk_id", riskID)), http.StatusNotFound)
			return
		}
		writeJSON(w, r, http.StatusOK, statisticsResponse{Statistics: records})
	}
}

func getStatisticsHandler(uc StatisticsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		riskID := types.RiskID(chi.URLParam(r, "riskID"))
		if err := riskID.Validate(); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		scenario, err := types.ParseScenario(chi.URLParam(r, "scenario"))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		record, err := uc.Get(r.Context(), riskID, scenario)
		if errors.Is(err, interfaces.ErrNotFound) {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
			return
		}
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, r, http.StatusOK, record)
	}
}

func nonNil(records []*model.RiskStatistics) []*model.RiskStatistics {
	if records == nil {
		return []*model.RiskStatistics{}
	}
	return records
}
