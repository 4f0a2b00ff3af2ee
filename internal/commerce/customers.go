package commerce

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/shopswift/internal/models"
)

type SignupDraft struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	body := map[string]string{"email": email, "password": password}

	var res signInResult
	if err := c.do(ctx, ScopeCustomer, http.MethodPost, "/me/login", nil, body, &res); err != nil {
		return models.User{}, err
	}
	return mapCustomer(res.Customer), nil
}

func (c *Client) Signup(ctx context.Context, d SignupDraft) (models.User, error) {
	var res signInResult
	if err := c.do(ctx, ScopeCustomer, http.MethodPost, "/me/signup", nil, d, &res); err != nil {
		return models.User{}, err
	}
	return mapCustomer(res.Customer), nil
}
