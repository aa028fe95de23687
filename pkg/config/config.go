package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"

	"github.com/zumu-ai/knowledgedb/domain"
)

// Env var keys for the per-family shard URLs. Every family has its own
// independently provisioned database; there is no shared default.
const (
	KeyUsersURL         = "USERS_DB_URL"
	KeyOrganizationsURL = "ORGANIZATIONS_DB_URL"
	KeyCollectionsURL   = "COLLECTIONS_DB_URL"
	KeyResourcesURL     = "RESOURCES_DB_URL"
	KeyFilesURL         = "FILES_DB_URL"
	KeyMeetingsURL      = "MEETINGS_DB_URL"
	KeyWebsitesURL      = "WEBSITES_DB_URL"
	KeyChatsURL         = "CHATS_DB_URL"
	KeyAssistantURL     = "ASSISTANT_DB_URL"
)

var requiredKeys = []string{
	KeyUsersURL,
	KeyOrganizationsURL,
	KeyCollectionsURL,
	KeyResourcesURL,
	KeyFilesURL,
	KeyMeetingsURL,
	KeyWebsitesURL,
	KeyChatsURL,
	KeyAssistantURL,
}

// Settings holds the application configuration. It is built once by Load at
// process start and passed down explicitly; nothing reads it ambiently.
type Settings struct {
	Environment string
	LogLevel    string
	RedisURL    string // optional; enables the get-or-create advisory lock

	UsersURL         string
	OrganizationsURL string
	CollectionsURL   string
	ResourcesURL     string
	FilesURL         string
	MeetingsURL      string
	WebsitesURL      string
	ChatsURL         string
	AssistantURL     string // reserved for the assistant service sharing this surface
}

// Load reads configuration for the current deployment environment. In
// production and staging every shard URL is resolved from Secret Manager;
// everywhere else a local .env file is merged into the environment first.
// A missing shard URL fails the load before any repository is usable.
func Load(ctx context.Context) (*Settings, error) {
	env := os.Getenv("ENV")

	switch env {
	case "production", "staging":
		if err := loadSecrets(ctx); err != nil {
			return nil, err
		}
	default:
		// Local/dev convenience, same as shipping a .env alongside the
		// checkout. Absence of the file is not an error.
		_ = godotenv.Overload()
	}

	s := &Settings{
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	targets := map[string]*string{
		KeyUsersURL:         &s.UsersURL,
		KeyOrganizationsURL: &s.OrganizationsURL,
		KeyCollectionsURL:   &s.CollectionsURL,
		KeyResourcesURL:     &s.ResourcesURL,
		KeyFilesURL:         &s.FilesURL,
		KeyMeetingsURL:      &s.MeetingsURL,
		KeyWebsitesURL:      &s.WebsitesURL,
		KeyChatsURL:         &s.ChatsURL,
		KeyAssistantURL:     &s.AssistantURL,
	}
	for _, key := range requiredKeys {
		value := os.Getenv(key)
		if value == "" {
			return nil, &domain.ConfigurationError{Key: key, Reason: "value is not set"}
		}
		*targets[key] = value
	}

	return s, nil
}

// loadSecrets resolves each required shard URL from Secret Manager and
// publishes it into the environment, mirroring how the deployment injects
// plain env vars in other environments. Secret names are the lowercased
// env var keys.
func loadSecrets(ctx context.Context) error {
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		return &domain.ConfigurationError{Key: "GCP_PROJECT_ID", Reason: "required in production and staging"}
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return &domain.ConfigurationError{Key: "GCP_PROJECT_ID", Reason: fmt.Sprintf("secret manager client: %v", err)}
	}
	defer client.Close()

	for _, key := range requiredKeys {
		name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, strings.ToLower(key))
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return &domain.ConfigurationError{Key: key, Reason: fmt.Sprintf("secret access failed: %v", err)}
		}
		if err := os.Setenv(key, strings.TrimSpace(string(resp.GetPayload().GetData()))); err != nil {
			return &domain.ConfigurationError{Key: key, Reason: fmt.Sprintf("setenv failed: %v", err)}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
