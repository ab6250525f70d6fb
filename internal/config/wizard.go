package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It saves the config to path, and writes the token to a
// .env file beside it when one was entered.
func RunWizard(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	fmt.Println("Welcome to airtable-mcp! Let's configure your gateway.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Token.
	tokenPrompt := promptui.Prompt{
		Label: "Airtable personal access token (leave blank to use the environment)",
		Mask:  '*',
	}
	token, err := tokenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	token = strings.TrimSpace(token)

	// 2. Default base.
	basePrompt := promptui.Prompt{
		Label:    "Default base ID (appXXXXXXXXXXXXXX, optional)",
		Default:  os.Getenv("AIRTABLE_BASE_ID"),
		Validate: validateBaseID,
	}
	baseID, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("default base: %w", err)
	}
	cfg.Airtable.DefaultBaseID = strings.TrimSpace(baseID)

	// 3. Language.
	langPrompt := promptui.Select{
		Label: "Default conversation language",
		Items: []string{"es (español)", "en (English)"},
	}
	langIdx, _, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("language selection: %w", err)
	}
	cfg.NLP.DefaultLanguage = []string{"es", "en"}[langIdx]

	// 4. Storage.
	storagePrompt := promptui.Select{
		Label: "Where should conversation contexts be stored",
		Items: []string{
			"memory   (lost on restart)",
			"sqlite   (local file)",
			"postgres (shared database)",
		},
	}
	storageIdx, _, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage selection: %w", err)
	}
	cfg.Storage.Backend = []StorageBackend{StorageMemory, StorageSQLite, StoragePostgres}[storageIdx]

	switch cfg.Storage.Backend {
	case StorageSQLite:
		p := promptui.Prompt{Label: "SQLite database path", Default: cfg.Storage.SQLitePath}
		if cfg.Storage.SQLitePath, err = p.Run(); err != nil {
			return nil, fmt.Errorf("sqlite path: %w", err)
		}
	case StoragePostgres:
		p := promptui.Prompt{Label: "Postgres URL (leave blank to use DATABASE_URL)"}
		if cfg.Storage.PostgresURL, err = p.Run(); err != nil {
			return nil, fmt.Errorf("postgres url: %w", err)
		}
	}

	// 5. Events.
	natsPrompt := promptui.Prompt{
		Label: "NATS URL for query events (optional)",
	}
	natsURL, err := natsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("nats url: %w", err)
	}
	cfg.Events.NATSURL = strings.TrimSpace(natsURL)

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("\nConfiguration saved to %s\n", path)

	if token != "" {
		envPath := dotEnvPath(path)
		if err := appendEnv(envPath, tokenEnvVars[0], token); err != nil {
			return nil, fmt.Errorf("saving token: %w", err)
		}
		fmt.Printf("Token saved to %s\n", envPath)
		cfg.Airtable.Token = token
	} else if os.Getenv(tokenEnvVars[0]) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running airtable-mcp serve.\n", tokenEnvVars[0])
	}

	return cfg, nil
}

// validateBaseID accepts an empty value or an Airtable base id.
func validateBaseID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "app") || len(s) < 4 {
		return fmt.Errorf("base ids start with \"app\"")
	}
	return nil
}

func dotEnvPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}

// appendEnv sets key in the dotenv file at path, keeping existing entries.
func appendEnv(path, key, value string) error {
	vars := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		vars = existing
	}
	vars[key] = value
	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}
