package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"adopet/internal/admission"
	"adopet/internal/app"
	"adopet/internal/config"
	"adopet/internal/domain"
	"adopet/internal/repo"
	"adopet/internal/server"
)

func apiKeyCmd() *cobra.Command {
	k := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for shelter staff",
	}
	k.AddCommand(apiKeyCreateCmd())
	k.AddCommand(apiKeyListCmd())
	k.AddCommand(apiKeyDeleteCmd())
	return k
}

func newRawKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "adk_" + hex.EncodeToString(buf), nil
}

func apiKeyCreateCmd() *cobra.Command {
	var (
		actorID, name string
		perms         []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; the key is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := newRawKey()
			if err != nil {
				return err
			}
			key := domain.APIKey{
				ID:          uuid.NewString(),
				ActorID:     strings.TrimSpace(actorID),
				Name:        name,
				KeyHash:     repo.HashAPIKey(raw),
				Permissions: perms,
				CreatedAt:   time.Now().UTC().Format(time.RFC3339),
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				if err := rt.Engine.Repo.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "actor_id": key.ActorID, "key": raw, "permissions": key.Permissions})
				}
				fmt.Printf("id:  %s\nkey: %s\n", key.ID, raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "actor the key authenticates as")
	cmd.Flags().StringVar(&name, "name", "", "label")
	cmd.Flags().StringSliceVar(&perms, "permission", []string{server.PermissionEvaluate}, "granted permission (repeatable)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func apiKeyListCmd() *cobra.Command {
	var actorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				keys, err := rt.Engine.Repo.ListAPIKeys(ctx, actorID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Actor", "Name", "Permissions", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, strings.Join(k.Permissions, ","), k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "actor filter")
	return cmd
}

func apiKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				return rt.Engine.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	}
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "adopet.yml sits in the workspace root. It configures the HTTP server, notification delivery and which eligibility rules run. Without it defaults apply.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	cfg.AddCommand(configInitCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate adopet.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err == nil {
				err = cfg.Validate(admission.OptionalRules())
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default adopet.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		addr, basePath string
		devLogin       bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the notification dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				if addr != "" {
					rt.Config.Server.Addr = addr
				}
				if basePath != "" {
					rt.Config.Server.BasePath = basePath
				}
				if secret := viper.GetString("jwt-secret"); secret != "" {
					rt.Config.Server.JWTSecret = secret
				}
				if devLogin {
					rt.Config.Server.DevLogin = true
				}
				if (rt.Config.Server.RequireAuth || rt.Config.Server.DevLogin) && rt.Config.Server.JWTSecret == "" {
					return fmt.Errorf("ADOPET_JWT_SECRET or server.jwt_secret is required when require_auth or dev_login is set")
				}
				ln, err := net.Listen("tcp", rt.Config.Server.Addr)
				if err != nil {
					return err
				}
				logger.Info("serving adopet api",
					zap.String("url", "http://"+ln.Addr().String()+rt.Config.Server.BasePath),
					zap.String("docs", "/docs"))
				fmt.Printf("Serving Adopet API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n",
					ln.Addr().String(), rt.Config.Server.BasePath, rt.Config.Server.BasePath)
				return rt.Serve(ctx, ln)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides server.base_path)")
	cmd.Flags().BoolVar(&devLogin, "dev-login", false, "expose /auth/dev/login (signs any requested permissions)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret for bearer tokens")
	_ = viper.BindPFlag("jwt-secret", cmd.Flags().Lookup("jwt-secret"))
	return cmd
}
