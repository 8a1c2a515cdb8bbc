package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/server/models"
)

type userDetails struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

func detailsJSON(a *models.Account) userDetails {
	return userDetails{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		DateJoined: a.CreatedAt,
	}
}

// GET /api/user/details
func (s *Server) handleUserDetails(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}
	a, err := s.accounts.Details(r.Context(), acc)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, detailsJSON(a))
	return nil
}

// PUT /api/user/details
// Body: {"email", "first_name", "last_name"}; absent keys keep the old value.
func (s *Server) handleUpdateUserDetails(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}

	var body struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		return err
	}

	a, err := s.accounts.UpdateDetails(r.Context(), acc, models.ProfileUpdate{
		Email:     body.Email,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, detailsJSON(a))
	return nil
}

// POST /api/user/password
// Body: {"old_password", "new_password"}
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}

	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		return err
	}

	if err := s.accounts.ChangePassword(r.Context(), acc, body.OldPassword, body.NewPassword); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
	return nil
}

const maxJSONBody = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: bad JSON body: %v", common.ErrInvalidInput, err)
	}
	return nil
}
