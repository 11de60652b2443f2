package oauth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProvider builds the Google consent URL for login initiation. One
// provider exists per portal role since each role has its own callback URI.
type GoogleProvider struct {
	config oauth2.Config
}

// NewGoogleProvider creates a Google OAuth provider for one callback URI.
func NewGoogleProvider(clientID, clientSecret, redirectURI string) *GoogleProvider {
	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL generates the authorization URL with the given state parameter.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}
