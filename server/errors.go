package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hupe1980/agentrouter/auth"
	"github.com/hupe1980/agentrouter/core"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps typed errors to status codes:
// validation 422, routing 400, agent failure 500, peer failure 502.
func writeError(w http.ResponseWriter, err error) {
	var (
		vErr     *core.ValidationError
		iErr     *core.InvalidRequestError
		execErr  *core.ExecutionError
		gwErr    *core.GatewayError
		loginErr *auth.LoginError
	)

	switch {
	case errors.As(err, &vErr):
		writeDetail(w, http.StatusUnprocessableEntity, vErr.Error())
	case errors.As(err, &iErr):
		writeDetail(w, http.StatusBadRequest, iErr.Message)
	case errors.As(err, &execErr):
		writeDetail(w, http.StatusInternalServerError, "Agent error: "+execErr.Err.Error())
	case errors.As(err, &gwErr):
		writeDetail(w, http.StatusBadGateway, gwErr.Error())
	case errors.As(err, &loginErr), errors.Is(err, auth.ErrInvalidState):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}
