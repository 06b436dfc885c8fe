// Package handlers serves the canvas HTTP API. Mutations go through the
// command bus; reads go straight to the session.
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"canvas-backend/application/commands/bus"
	"canvas-backend/pkg/common"
	apperrors "canvas-backend/pkg/errors"
)

type base struct {
	commandBus *bus.CommandBus
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// send dispatches cmd and writes its result. A nil result becomes 204.
func (b *base) send(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	opID := uuid.NewString()
	ctx := bus.WithOperationID(r.Context(), opID)

	result, err := b.commandBus.Send(ctx, cmd)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	if result == nil {
		w.Header().Set("X-Operation-ID", opID)
		common.RespondNoContent(w)
		return
	}
	common.RespondWithMeta(w, r, status, result, &common.MetaInfo{OperationID: opID})
}

// decode reads the request body, reporting failures itself.
func (b *base) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := common.DecodeJSON(r, dst); err != nil {
		b.errors.Handle(w, r, err)
		return false
	}
	return true
}
