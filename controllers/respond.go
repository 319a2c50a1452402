package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/healthq/healthq/models"
)

const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	defer r.Body.Close()
	if err != nil {
		return models.Validation("Failed to read request body")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return models.Validation("Invalid JSON body")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("%s", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": models.UserMessage(err)})
}

func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindValidation, models.KindDuplicate:
		return http.StatusBadRequest
	case models.KindAuth:
		return http.StatusUnauthorized
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
