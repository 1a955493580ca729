package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/port"
	"github.com/pixav/maxwell/internal/validation"
)

func RegisterAccountHandler(svc port.AccountRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in port.RegisterAccountInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			WriteError(r.Context(), w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid JSON: %w", err))
			return
		}

		if errs := validation.ValidateStruct(in); errs != nil {
			errsJSON, err := validation.ErrorsToJson(errs)
			if err != nil {
				WriteError(r.Context(), w, http.StatusInternalServerError, "Validation error (could not encode details)", fmt.Errorf("encoding validation errors: %w", err))
				return
			}

			RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
			logger.Warnf(r.Context(), "❌  Validation failed: %s", errsJSON)
			return
		}

		acct, err := svc.RegisterAccount(r.Context(), in)
		if err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not register account", err)
			return
		}

		RespondJSON(w, http.StatusCreated, acct)
		logger.Infof(r.Context(), "✅  Successfully registered account #%s", acct.ID)
	}
}

func ListAccountsHandler(svc port.AccountRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := svc.ListAccounts(r.Context())
		if err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not list accounts", err)
			return
		}

		RespondJSON(w, http.StatusOK, accounts)
	}
}
