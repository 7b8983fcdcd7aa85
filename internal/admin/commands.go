// Package admin implements socialctl, the operator CLI of gophsocial.
package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/netx"
	"github.com/dmitrijs2005/gophsocial/internal/server/config"
	"github.com/dmitrijs2005/gophsocial/internal/server/mail"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophsocial/internal/server/services"
	"github.com/spf13/cobra"
)

// Opener loads the configuration and connects to its storage backend.
type Opener func(ctx context.Context) (*config.Config, repomanager.RepositoryManager, error)

// DefaultOpener reads the server configuration from the usual sources
// (defaults, environment, JSON file, flags) and opens the backend.
func DefaultOpener(ctx context.Context) (*config.Config, repomanager.RepositoryManager, error) {
	cfg := config.LoadConfig()
	rm, err := repomanager.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rm, nil
}

// NewRootCmd builds the socialctl command tree. Server flags such as -d are
// accepted anywhere and read by the configuration loader.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "socialctl",
		Short:         "Administer a gophsocial deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
	}
	root.AddCommand(
		newMigrateCmd(open),
		newPurgeCmd(open),
		newCreateUserCmd(open),
		newUploadImageCmd(open),
	)
	return root
}

// Execute runs socialctl with os.Args.
func Execute() {
	root := NewRootCmd(DefaultOpener)
	if err := root.Execute(); err != nil {
		failure(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

// withBackend opens the backend for the duration of fn.
func withBackend(cmd *cobra.Command, open Opener, fn func(ctx context.Context, cfg *config.Config, rm repomanager.RepositoryManager) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, rm, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = rm.Close(ctx) }()

	muted(cmd.OutOrStdout(), "backend: %s", cfg.Backend())
	return fn(ctx, cfg, rm)
}

func userService(cfg *config.Config, rm repomanager.RepositoryManager) *services.UserService {
	log := logging.Nop{}
	return services.NewUserService(rm, mail.New(cfg, log), log, cfg)
}

func newMigrateCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations or create indexes",
		Args:  cobra.NoArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, cfg *config.Config, rm repomanager.RepositoryManager) error {
				info(cmd.OutOrStdout(), "Running migrations...")
				if err := rm.RunMigrations(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				success(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func newPurgeCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-unverified",
		Short: "Delete accounts whose verification link has expired",
		Args:  cobra.NoArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, cfg *config.Config, rm repomanager.RepositoryManager) error {
				n, err := userService(cfg, rm).PurgeUnverified(ctx)
				if err != nil {
					return fmt.Errorf("purge: %w", err)
				}
				success(cmd.OutOrStdout(), "Removed %d unverified account(s)", n)
				return nil
			})
		},
	}
}

func newCreateUserCmd(open Opener) *cobra.Command {
	var in services.Registration

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a verified account, prompting for its password",
		Args:  cobra.NoArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			pw, err := getPassword(out, "Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			defer common.WipeByteArray(pw)

			again, err := getPassword(out, "Repeat password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			defer common.WipeByteArray(again)

			if !bytes.Equal(pw, again) {
				return errors.New("passwords do not match")
			}
			in.Password = string(pw)

			return withBackend(cmd, open, func(ctx context.Context, cfg *config.Config, rm repomanager.RepositoryManager) error {
				user, err := userService(cfg, rm).CreateVerifiedUser(ctx, in)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				success(out, "Created %s %s <%s>", user.FirstName, user.LastName, user.Email)
				muted(out, "id: %s", user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

func newUploadImageCmd(open Opener) *cobra.Command {
	var (
		userID     string
		setProfile bool
	)

	cmd := &cobra.Command{
		Use:   "upload-image FILE",
		Short: "Upload an image to object storage on behalf of a user",
		Args:  cobra.ExactArgs(1),
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			return withBackend(cmd, open, func(ctx context.Context, cfg *config.Config, rm repomanager.RepositoryManager) error {
				if _, err := rm.Users().GetByID(ctx, userID); err != nil {
					return fmt.Errorf("user %s: %w", userID, err)
				}

				upload, err := services.NewMediaService(cfg).PresignImageUpload(ctx, userID)
				if err != nil {
					return fmt.Errorf("presign upload: %w", err)
				}
				if err := netx.PutPresigned(ctx, upload.URL, http.DetectContentType(data), data); err != nil {
					return err
				}
				success(out, "Uploaded %d bytes", len(data))
				muted(out, "key: %s", upload.Key)

				if setProfile {
					if _, err := rm.Users().Update(ctx, userID, models.ProfileUpdate{ProfileURL: upload.Key}); err != nil {
						return fmt.Errorf("update profile: %w", err)
					}
					success(out, "Profile picture updated")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	cmd.Flags().BoolVar(&setProfile, "set-profile", false, "store the key as the user's profile picture")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
