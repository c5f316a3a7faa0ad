package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/uniapply/uniapply-go/config"
	"github.com/uniapply/uniapply-go/internal/adapters/filestore"
	"github.com/uniapply/uniapply-go/internal/adapters/keyringstore"
	"github.com/uniapply/uniapply-go/internal/adapters/mockapi"
	"github.com/uniapply/uniapply-go/internal/adapters/oidcauth"
	"github.com/uniapply/uniapply-go/internal/adapters/redisstore"
	"github.com/uniapply/uniapply-go/internal/adapters/restapi"
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
	"github.com/uniapply/uniapply-go/internal/service"
)

// BuildSessionStore creates the configured session store backend.
func BuildSessionStore(cfg config.StorageConfig) (ports.SessionStore, error) {
	switch cfg.Backend {
	case config.StorageFile:
		path := cfg.Path
		if path == "" {
			var err error
			path, err = filestore.DefaultPath()
			if err != nil {
				return nil, fmt.Errorf("resolve session path: %w", err)
			}
		}
		return filestore.New(path)

	case config.StorageKeyring:
		return keyringstore.New(cfg.KeyringService), nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return redisstore.New(client, cfg.RedisProfile), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// AuthDeps groups inputs for BuildAuthService.
type AuthDeps struct {
	Config config.AppConfig
	Logger *slog.Logger
}

// BuildAuthService wires stores, API client, and state machine according
// to the configured auth mode.
func BuildAuthService(deps AuthDeps) (*service.AuthService, error) {
	store, err := BuildSessionStore(deps.Config.Storage)
	if err != nil {
		return nil, err
	}

	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Store:         store,
		RefreshWindow: deps.Config.Auth.RefreshWindow,
	})

	api, err := buildAuthAPI(deps, sessions)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		API:      api,
		Sessions: sessions,
		Logger:   deps.Logger,
	}), nil
}

func buildAuthAPI(deps AuthDeps, sessions *service.SessionManager) (ports.AuthAPI, error) {
	switch deps.Config.Auth.Mode {
	case config.AuthModeMock:
		var role domainauth.Role
		if err := role.UnmarshalText([]byte(deps.Config.Auth.Mock.Role)); err != nil {
			return nil, fmt.Errorf("mock auth role: %w", err)
		}
		return mockapi.New(mockapi.Config{
			Email:     deps.Config.Auth.Mock.Email,
			Password:  deps.Config.Auth.Mock.Password,
			FirstName: deps.Config.Auth.Mock.FirstName,
			LastName:  deps.Config.Auth.Mock.LastName,
			Role:      role,
		})

	case config.AuthModeLive:
		return restapi.NewClient(restapi.ClientOptions{
			BaseURL: deps.Config.API.BaseURL,
			Tokens:  sessions,
			Timeout: deps.Config.API.Timeout,
			Logger:  deps.Logger,
		})

	default:
		return nil, fmt.Errorf("unknown auth mode %q", deps.Config.Auth.Mode)
	}
}

// BuildSocialProviders creates OIDC providers for each configured social
// identity provider. Unconfigured providers are skipped with a warning
// rather than failing startup.
func BuildSocialProviders(cfg config.AuthConfig, logger *slog.Logger) map[string]ports.SocialProvider {
	providers := make(map[string]ports.SocialProvider)

	for name, pc := range map[string]config.SocialProviderConfig{
		"google": cfg.Google,
		"apple":  cfg.Apple,
	} {
		if !pc.Configured() {
			continue
		}
		prov, err := oidcauth.NewProvider(oidcauth.ProviderConfig{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scope:        pc.Scope,
			IssuerURL:    pc.IssuerURL,
		})
		if err != nil {
			if logger != nil {
				logger.Warn("social provider disabled", "provider", name, "error", err)
			}
			continue
		}
		providers[name] = prov
	}
	return providers
}
