package handlers

import (
	"errors"
	"net/mail"
	"net/url"
)

var (
	errInvalidURL    = errors.New("A valid http(s) product URL is required")
	errInvalidEmail  = errors.New("Invalid email address")
	errInvalidTarget = errors.New("target_price must be greater than zero")
)

func validateTrackRequest(req *TrackRequest) error {
	u, err := url.ParseRequestURI(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errInvalidURL
	}

	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return errInvalidEmail
		}
	}

	if req.TargetPrice != nil && *req.TargetPrice <= 0 {
		return errInvalidTarget
	}

	return nil
}
