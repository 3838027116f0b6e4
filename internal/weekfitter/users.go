package weekfitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const usersPath = "/api/users"

type LoginResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

type Profile struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// ProfileUpdate only carries the fields to change; empty fields are omitted
// and the backend leaves them alone.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	req, err := c.jsonRequest(http.MethodPost, usersPath+"/login", nil, map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	})
	if err != nil {
		return LoginResponse{}, err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return LoginResponse{}, err
	}

	response, err := decodeJSON[LoginResponse](payload, "login response")
	if err != nil {
		return LoginResponse{}, err
	}
	if strings.TrimSpace(response.Token) == "" {
		return LoginResponse{}, fmt.Errorf("login response carried no token")
	}
	if strings.TrimSpace(response.Email) == "" {
		response.Email = strings.TrimSpace(email)
	}
	return response, nil
}

func (c *Client) Register(ctx context.Context, registration Registration) (Profile, error) {
	req, err := c.jsonRequest(http.MethodPost, usersPath+"/register", nil, registration)
	if err != nil {
		return Profile{}, err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return Profile{}, err
	}
	return decodeJSON[Profile](payload, "registered user")
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	payload, err := c.do(ctx, request{method: http.MethodGet, path: usersPath + "/profile"})
	if err != nil {
		return Profile{}, err
	}
	return decodeJSON[Profile](payload, "profile")
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	req, err := c.jsonRequest(http.MethodPut, usersPath+"/profile", nil, update)
	if err != nil {
		return Profile{}, err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return Profile{}, err
	}
	return decodeJSON[Profile](payload, "profile")
}

func (c *Client) UploadPhoto(ctx context.Context, email, path string) (Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open photo: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	query := url.Values{"email": []string{strings.TrimSpace(email)}}
	req, err := multipartRequest(usersPath+"/upload-photo", query, filepath.Base(path), file)
	if err != nil {
		return Profile{}, err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return Profile{}, err
	}
	return decodeJSON[Profile](payload, "profile")
}

// ForgotPassword asks the backend to mail a reset link and returns its
// plain-text acknowledgement.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	req, err := c.jsonRequest(http.MethodPost, usersPath+"/forgot-password", nil, map[string]string{
		"email": strings.TrimSpace(email),
	})
	if err != nil {
		return "", err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	return plainText(payload), nil
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	req, err := c.jsonRequest(http.MethodPost, usersPath+"/reset-password", nil, map[string]string{
		"token":       strings.TrimSpace(token),
		"newPassword": newPassword,
	})
	if err != nil {
		return "", err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	return plainText(payload), nil
}
