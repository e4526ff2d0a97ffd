package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultThumbnailsSubDir = "thumbnails"
)

const (
	defaultPollIntervalSeconds  = 60
	defaultThumbnailMaxSize     = 300
	defaultTaggerTimeoutSeconds = 30
	defaultScriptTimeoutSeconds = 60
)

var defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}

type Config struct {
	// repository configuration (where originals are pulled from)
	RepoPath     string // local working copy
	RepoURL      string // remote to clone/fetch from; empty means RepoPath is used as-is
	RepoUsername string
	RepoToken    string

	// polling
	PollInterval    time.Duration
	ImageExtensions []string // lowercased, with leading dot

	// database path
	DatabasePath string

	// media storage configuration
	MediaStoragePath string // primary root for generated assets
	ThumbnailsPath   string // full-calculated path for thumbnails

	// thumbnail generation settings
	ThumbnailMaxSize int

	// AI tagger settings
	TaggerExecutable string
	TaggerScript     string
	TaggerTimeout    time.Duration

	// custom script execution settings
	ScriptInterpreter string
	ScriptTimeout     time.Duration

	// owner fallback for changes whose author has no user account
	DefaultOwnerUsername string
	DefaultOwnerPassword string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// parseExtensionList normalizes a comma-separated extension list to
// lowercased, dot-prefixed entries; empty pieces are skipped
func parseExtensionList(raw string) []string {
	if raw == "" {
		return defaultImageExtensions
	}
	var exts []string
	for _, piece := range strings.Split(raw, ",") {
		ext := strings.ToLower(strings.TrimSpace(piece))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		log.Printf("Warning: IMAGE_EXTENSIONS '%s' contained no valid entries, using defaults", raw)
		return defaultImageExtensions
	}
	return exts
}

func LoadConfig() (Config, error) {
	repoPath := getEnvOrDefault("REPO_PATH", "./photo_repo")
	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for repository '%s': %w", repoPath, err)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", "photos.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	absThumbnailsPath := filepath.Join(absMediaStorage, thumbSubDir)

	pollSeconds := getEnvIntOrDefault("POLL_INTERVAL_SECONDS", defaultPollIntervalSeconds)
	thumbMaxSize := getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize)
	taggerTimeout := getEnvIntOrDefault("TAGGER_TIMEOUT_SECONDS", defaultTaggerTimeoutSeconds)
	scriptTimeout := getEnvIntOrDefault("SCRIPT_TIMEOUT_SECONDS", defaultScriptTimeoutSeconds)

	cfg := Config{
		RepoPath:             absRepoPath,
		RepoURL:              os.Getenv("REPO_URL"),
		RepoUsername:         os.Getenv("REPO_USERNAME"),
		RepoToken:            os.Getenv("REPO_TOKEN"),
		PollInterval:         time.Duration(pollSeconds) * time.Second,
		ImageExtensions:      parseExtensionList(os.Getenv("IMAGE_EXTENSIONS")),
		DatabasePath:         dbPath,
		MediaStoragePath:     absMediaStorage,
		ThumbnailsPath:       absThumbnailsPath,
		ThumbnailMaxSize:     thumbMaxSize,
		TaggerExecutable:     os.Getenv("TAGGER_EXECUTABLE"),
		TaggerScript:         os.Getenv("TAGGER_SCRIPT"),
		TaggerTimeout:        time.Duration(taggerTimeout) * time.Second,
		ScriptInterpreter:    getEnvOrDefault("SCRIPT_INTERPRETER", "/bin/sh"),
		ScriptTimeout:        time.Duration(scriptTimeout) * time.Second,
		DefaultOwnerUsername: getEnvOrDefault("DEFAULT_OWNER_USERNAME", "library"),
		DefaultOwnerPassword: os.Getenv("DEFAULT_OWNER_PASSWORD"),
	}

	return cfg, nil
}

// WatchesExtension reports whether ext (any case, with or without dot) is in
// the configured watch list
func (c Config) WatchesExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, e := range c.ImageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
