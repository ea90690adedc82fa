package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dimworks/dimpay-backend/api/responses"
	"github.com/dimworks/dimpay-backend/internal/wallets"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
	"github.com/dimworks/dimpay-backend/pkg/logger"
)

func WalletDetail(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		walletID, err := uuid.Parse(chi.URLParam(r, "walletID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet id"))
			return
		}

		wallet, err := svc.Get(ctx, walletID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}

func WalletStatement(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		walletID, err := uuid.Parse(chi.URLParam(r, "walletID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet id"))
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit"))
				return
			}
		}

		entries, err := svc.Statement(ctx, walletID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
