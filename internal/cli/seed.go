package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository/memory"
)

// seedFile is the reference data the in-memory backend starts with. In production
// the same rows live in the users, assets and zoom_accounts tables.
type seedFile struct {
	Users []struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
		Roles json.RawMessage `json:"roles"`
	} `json:"users"`
	Assets []struct {
		Code     string `json:"code"`
		NUP      string `json:"nup"`
		Name     string `json:"name"`
		Location string `json:"location"`
	} `json:"assets"`
	ZoomAccounts []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		HostKey  string `json:"host_key"`
		Color    string `json:"color"`
		Priority int    `json:"priority"`
		Active   *bool  `json:"is_active"`
	} `json:"zoom_accounts"`
}

func loadSeed(path string, store *memory.Store) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}
	for _, u := range seed.Users {
		if u.ID == "" {
			return fmt.Errorf("parse seed %s: user without id", path)
		}
		store.PutUser(domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Roles: domain.ParseRoles(u.Roles)})
	}
	for _, a := range seed.Assets {
		store.PutAsset(domain.Asset{Code: a.Code, NUP: a.NUP, Name: a.Name, Location: a.Location})
	}
	for _, z := range seed.ZoomAccounts {
		store.PutZoomAccount(domain.ZoomAccount{
			ID:       z.ID,
			Name:     z.Name,
			Email:    z.Email,
			HostKey:  z.HostKey,
			Color:    z.Color,
			Priority: z.Priority,
			IsActive: z.Active == nil || *z.Active,
		})
	}
	return nil
}
