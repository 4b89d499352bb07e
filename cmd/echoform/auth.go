package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Echoform/internal/db"
	"github.com/soaringjerry/Echoform/internal/services"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Long: `Logs in against the backend and stores the token and profile in the
session database. The password is read from --password, $ECHOFORM_PASSWORD
or the first line of stdin, in that order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("ECHOFORM_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			ctx := cmd.Context()
			store, closeStore, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			cl, err := a.client()
			if err != nil {
				return err
			}
			res, err := services.NewAuthService(cl, store, a.log).Login(ctx, email, password)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(map[string]any{"user": res.User, "business_id": res.User.BusinessID()})
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", describeUser(res.User))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			if err := services.NewAuthService(nil, store, a.log).Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account as the backend sees it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, c *call) error {
				u, err := c.client.CurrentUser(ctx, c.session.Token)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(map[string]any{"user": u, "business_id": u.BusinessID()})
				}
				fmt.Fprintln(a.out, describeUser(u))
				return nil
			})
		},
	}
}

func describeUser(u *services.UserProfile) string {
	if u == nil {
		return "unknown user"
	}
	name := firstSet(u.Name, u.Email, u.UserID())
	if b := u.BusinessID(); b != "" {
		return fmt.Sprintf("%s (business %s)", name, b)
	}
	return name
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (a *app) migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the local session database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sqlDB, err := db.Open(ctx, a.cfg.SessionDB)
			if err != nil {
				return err
			}
			defer func() { _ = sqlDB.Close() }()
			if dir != "" {
				if err := db.RunMigrations(ctx, sqlDB, dir); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
			}
			fmt.Fprintf(a.out, "Session database ready at %s\n", a.cfg.SessionDB)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "extra migrations directory")
	return cmd
}
