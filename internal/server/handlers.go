package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
	"github.com/clientworkaccess-cmd/integration--hub/internal/logging"
)

// ConnectResponse is returned by the connect and identity endpoints.
type ConnectResponse struct {
	IdentityRequired bool   `json:"identityRequired,omitempty"`
	Prompted         bool   `json:"prompted,omitempty"`
	IntegrationID    string `json:"integrationId,omitempty"`
	RedirectURL      string `json:"redirectUrl,omitempty"`
}

type identityRequest struct {
	Email string `json:"email"`
}

// handleLoad serves the application URL. A successful callback redirects
// to the same URL without the code; anything else returns the state.
func (s *HTTPServer) handleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.sc.Hub().HandleLoad(ctx, r.URL)
	switch {
	case errors.Is(err, hub.ErrConnectionInProgress):
		writeError(w, http.StatusConflict, errCodeInProgress, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to handle load", logging.Err(err))
		writeError(w, http.StatusInternalServerError, errCodeServerError, "failed to handle callback")
		return
	}

	if res.Outcome == hub.LoadSucceeded && res.CleanURL != nil {
		http.Redirect(w, r, res.CleanURL.String(), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, s.sc.Hub().Snapshot(ctx))
}

func (s *HTTPServer) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sc.Hub().Snapshot(r.Context()))
}

func (s *HTTPServer) handleIntegrations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sc.Hub().Catalog().List())
}

func (s *HTTPServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	res, err := s.sc.Hub().RequestConnect(ctx, id)
	switch {
	case errors.Is(err, hub.ErrIntegrationNotFound):
		writeError(w, http.StatusNotFound, errCodeNotFound, fmt.Sprintf("integration %q not found", id))
		return
	case errors.Is(err, hub.ErrUnsupported):
		writeError(w, http.StatusUnprocessableEntity, errCodeUnsupported, hub.UnsupportedMessage(res.Integration.Name))
		return
	case errors.Is(err, hub.ErrConnectionInProgress):
		writeError(w, http.StatusConflict, errCodeInProgress, err.Error())
		return
	case err != nil:
		logging.WithIntegration(s.logger, id).ErrorContext(ctx, "connect failed", logging.Err(err))
		writeError(w, http.StatusInternalServerError, errCodeServerError, "failed to start connection")
		return
	}

	switch res.Outcome {
	case hub.ConnectIdentityRequired:
		writeJSON(w, http.StatusAccepted, ConnectResponse{
			IdentityRequired: true,
			Prompted:         res.Prompted,
			IntegrationID:    res.Integration.ID,
		})
	default:
		redirect(w, res.RedirectURL, res.Integration.ID)
	}
}

func (s *HTTPServer) handleIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	email, err := readEmail(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, errCodeInvalidRequest, "could not read email from request body")
		return
	}

	redirectURL, err := s.sc.Hub().SubmitIdentity(ctx, email)
	switch {
	case errors.Is(err, hub.ErrInvalidIdentity):
		writeError(w, http.StatusBadRequest, errCodeInvalidIdentity, err.Error())
		return
	case errors.Is(err, hub.ErrConnectionInProgress):
		writeError(w, http.StatusConflict, errCodeInProgress, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to submit identity", logging.Err(err))
		writeError(w, http.StatusInternalServerError, errCodeServerError, "failed to store identity")
		return
	}

	redirect(w, redirectURL, s.sc.Hub().Snapshot(ctx).IntegrationID)
}

func (s *HTTPServer) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.sc.Hub().Dismiss()
	s.logger.DebugContext(r.Context(), "notice dismissed", logging.RequestID(RequestIDFromContext(r.Context())))
	writeJSON(w, http.StatusOK, s.sc.Hub().Snapshot(r.Context()))
}

// redirect answers with 303 to the provider and repeats the URL in the
// body for clients that do not follow redirects.
func redirect(w http.ResponseWriter, url, integrationID string) {
	w.Header().Set("Location", url)
	writeJSON(w, http.StatusSeeOther, ConnectResponse{RedirectURL: url, IntegrationID: integrationID})
}

// readEmail accepts a JSON body or a form submission.
func readEmail(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body identityRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", err
		}
		return body.Email, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostForm.Get("email"), nil
}
