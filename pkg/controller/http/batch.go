package http

import (
	"context"
	"net/http"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
)

type batchResponse struct {
	ID model.BatchID `json:"id"`
}

// runBatchHandler accepts a batch against the stored catalogue and
// responds before the simulation finishes
func runBatchHandler(uc SimulationUseCase, dispatch Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.NewBatchID()
		ctx := logging.With(r.Context(), logging.From(r.Context()).With("batch_id", id))

		dispatch(ctx, func(ctx context.Context) error {
			_, err := uc.RunBatchWithID(ctx, id, nil)
			return err
		})

		writeJSON(w, r, http.StatusAccepted, batchResponse{ID: id})
	}
}
