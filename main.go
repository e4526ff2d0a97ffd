package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/config"
	"github.com/camden-git/photosyncbackend/database"
	"github.com/camden-git/photosyncbackend/handlers"
	"github.com/camden-git/photosyncbackend/ingest"
	"github.com/camden-git/photosyncbackend/media"
	"github.com/camden-git/photosyncbackend/models"
	"github.com/camden-git/photosyncbackend/realtime"
	"github.com/camden-git/photosyncbackend/repository"
	"github.com/camden-git/photosyncbackend/scripting"
	"github.com/camden-git/photosyncbackend/vcs"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.ThumbnailsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	photoRepo := repository.NewPhotoRepository(db)
	userRepo := repository.NewUserRepository(db)
	scriptRepo := repository.NewScriptRepository(db)
	cursorRepo := repository.NewCursorRepository(db)

	if err := seedDefaultOwner(userRepo, cfg); err != nil {
		log.Fatalf("FATAL: Failed to seed default owner: %v", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore)

	executor := scripting.NewExecutor(cfg.ScriptInterpreter, cfg.ScriptTimeout, scriptRepo, hub)
	scriptRouter := scripting.NewRouter(scriptRepo, executor)
	if err := scriptRouter.Start(); err != nil {
		log.Fatalf("FATAL: Failed to start script router: %v", err)
	}
	defer scriptRouter.Stop()

	tagger := scripting.NewTagger(cfg.TaggerExecutable, cfg.TaggerScript, cfg.TaggerTimeout)
	if tagger.Enabled() {
		log.Printf("AI tagger enabled: %s %s (timeout %s)", cfg.TaggerExecutable, cfg.TaggerScript, cfg.TaggerTimeout)
	} else {
		log.Printf("AI tagger not configured, ingestion will skip tag generation")
	}

	repoClient, err := vcs.Open(cfg.RepoPath, cfg.RepoURL, cfg.RepoUsername, cfg.RepoToken, cfg.ImageExtensions)
	if err != nil {
		log.Fatalf("FATAL: Failed to open photo repository: %v", err)
	}

	pipeline := ingest.NewPipeline(
		cfg.RepoPath,
		cfg.ThumbnailMaxSize,
		cfg.DefaultOwnerUsername,
		photoRepo,
		userRepo,
		scriptRouter,
		tagger,
		mediaProcessor,
		hub,
	)

	poller := ingest.NewPoller(repoClient, pipeline, cursorRepo, cfg.PollInterval)
	if err := poller.Start(); err != nil {
		log.Fatalf("FATAL: Failed to start polling loop: %v", err)
	}
	defer poller.Stop()

	log.Printf("Watching repository: %s", cfg.RepoPath)
	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing thumbnails in: %s", cfg.ThumbnailsPath)
	log.Printf("Thumbnail max size (longest side): %dpx", cfg.ThumbnailMaxSize)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	scriptHandler := handlers.NewAdminScriptHandler(scriptRepo, scriptRouter)
	logHandler := handlers.NewExecutionLogHandler(sqlDB)
	photoHandler := handlers.NewPhotoHandler(photoRepo)

	r.Route("/api", func(r chi.Router) {
		r.Route("/scripts", func(r chi.Router) {
			r.Post("/", scriptHandler.CreateScript)
			r.Get("/", scriptHandler.ListScripts)
			r.Post("/reload", scriptHandler.ReloadScripts)
			r.Get("/logs", logHandler.ListLogs)
			r.Get("/logs/stats", logHandler.GetStats)
			r.Route("/{script_id}", func(r chi.Router) {
				r.Get("/", scriptHandler.GetScript)
				r.Put("/", scriptHandler.UpdateScript)
				r.Delete("/", scriptHandler.DeleteScript)
			})
		})

		r.Get("/photos", photoHandler.ListPhotos)
		r.Get("/events", hub.ServeWS)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// seedDefaultOwner makes sure the fallback owner account exists so ingestion
// can always resolve ownership
func seedDefaultOwner(userRepo repository.UserRepositoryInterface, cfg config.Config) error {
	_, err := userRepo.GetByUsername(cfg.DefaultOwnerUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	password := cfg.DefaultOwnerPassword
	if password == "" {
		password = uuid.NewString()
		log.Printf("No DEFAULT_OWNER_PASSWORD set, generated a random one for %q", cfg.DefaultOwnerUsername)
	}

	user := models.User{Username: cfg.DefaultOwnerUsername}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := userRepo.Create(&user); err != nil {
		return err
	}
	log.Printf("Created default owner account %q", cfg.DefaultOwnerUsername)
	return nil
}
