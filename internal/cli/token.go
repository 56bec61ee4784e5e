package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local development",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().String("user", "", "user id placed in the sub claim")
	tokenCmd.Flags().String("name", "", "display name")
	tokenCmd.Flags().StringSlice("roles", nil, "comma separated roles, e.g. teknisi,pegawai")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	userID, _ := cmd.Flags().GetString("user")
	name, _ := cmd.Flags().GetString("name")
	rawRoles, _ := cmd.Flags().GetStringSlice("roles")

	roles, err := parseRoleFlags(rawRoles)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expiresAt, err := tokens.GenerateToken(userID, name, roles)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

var knownRoles = domain.NewRoleSet(
	domain.RoleSuperAdmin,
	domain.RoleAdminLayanan,
	domain.RoleAdminPenyedia,
	domain.RoleTeknisi,
	domain.RolePegawai,
)

func parseRoleFlags(raw []string) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		role := domain.Role(strings.TrimSpace(r))
		if role == "" {
			continue
		}
		if !knownRoles.Has(role) {
			return nil, fmt.Errorf("unknown role %q", role)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
