package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// GoogleCredentials is the OAuth material for the spreadsheet sink.
type GoogleCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccessToken  string
	RefreshToken string
}

// credentialsFile mirrors the credentials JSON layout: an access_token
// object next to the client_secrets used to mint it.
type credentialsFile struct {
	AccessToken struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"access_token"`
	ClientSecrets struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		RedirectURIs []string `json:"redirect_uris"`
	} `json:"client_secrets"`
}

// LoadGoogleCredentials reads and validates the credentials file.
func LoadGoogleCredentials(path string) (GoogleCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GoogleCredentials{}, fmt.Errorf("read credentials file: %w", err)
	}

	var parsed credentialsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return GoogleCredentials{}, fmt.Errorf("parse credentials file: %w", err)
	}

	if parsed.ClientSecrets.ClientID == "" || parsed.ClientSecrets.ClientSecret == "" {
		return GoogleCredentials{}, fmt.Errorf("credentials file is missing client secrets")
	}
	if len(parsed.ClientSecrets.RedirectURIs) == 0 {
		return GoogleCredentials{}, fmt.Errorf("credentials file has no redirect URIs")
	}
	if parsed.AccessToken.RefreshToken == "" {
		return GoogleCredentials{}, fmt.Errorf("credentials file is missing a refresh token")
	}

	return GoogleCredentials{
		ClientID:     parsed.ClientSecrets.ClientID,
		ClientSecret: parsed.ClientSecrets.ClientSecret,
		RedirectURI:  parsed.ClientSecrets.RedirectURIs[0],
		AccessToken:  parsed.AccessToken.AccessToken,
		RefreshToken: parsed.AccessToken.RefreshToken,
	}, nil
}
