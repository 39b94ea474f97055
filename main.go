package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"taeu.kr/kirosumi/internal/account"
	accountStore "taeu.kr/kirosumi/internal/account/store"
	"taeu.kr/kirosumi/internal/auth"
	"taeu.kr/kirosumi/internal/capture"
	captureHandler "taeu.kr/kirosumi/internal/capture/handler"
	captureStore "taeu.kr/kirosumi/internal/capture/store"
	"taeu.kr/kirosumi/internal/config"
	"taeu.kr/kirosumi/internal/export"
	"taeu.kr/kirosumi/internal/health"
	"taeu.kr/kirosumi/internal/item"
	itemHandler "taeu.kr/kirosumi/internal/item/handler"
	itemStore "taeu.kr/kirosumi/internal/item/store"
	"taeu.kr/kirosumi/internal/modal"
	"taeu.kr/kirosumi/internal/notefs"
	"taeu.kr/kirosumi/internal/onboarding"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/redisdb"
	"taeu.kr/kirosumi/internal/platform/web"
	"taeu.kr/kirosumi/internal/project"
	projectHandler "taeu.kr/kirosumi/internal/project/handler"
	projectStore "taeu.kr/kirosumi/internal/project/store"
	"taeu.kr/kirosumi/internal/rpc"
	"taeu.kr/kirosumi/internal/search"
	"taeu.kr/kirosumi/internal/session"
	"taeu.kr/kirosumi/internal/sftp"
	"taeu.kr/kirosumi/internal/spa"
	"taeu.kr/kirosumi/internal/space"
	spaceHandler "taeu.kr/kirosumi/internal/space/handler"
	spaceStore "taeu.kr/kirosumi/internal/space/store"
	"taeu.kr/kirosumi/internal/status"
	statusHandler "taeu.kr/kirosumi/internal/status/handler"
	statusStore "taeu.kr/kirosumi/internal/status/store"
	"taeu.kr/kirosumi/internal/system"
	"taeu.kr/kirosumi/internal/webdav"
	webdavHandler "taeu.kr/kirosumi/internal/webdav/handler"
)

// 빌드 시 -ldflags "-X main.goEnv=production -X main.version=..." 으로 주입
var (
	goEnv     = "development"
	version   = "dev"
	commit    = ""
	buildDate = ""
)

func main() {
	if env := os.Getenv("KIROSUMI_ENV"); env != "" {
		goEnv = env
	}
	setupLogger("info", "console")
	log.Info().Msg("[Main] Starting Server...")
	log.Info().Msgf("[Main] environment: %s", goEnv)

	config.SetConfig(goEnv)
	setupLogger(config.Conf.Log.Level, config.Conf.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB()
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] Failed to open database")
	}
	defer db.Close()

	// Redis는 선택. 없으면 세션과 modal 상태를 메모리에 둔다.
	var (
		redisClient *redis.Client
		sessions    session.Store = session.NewMemoryStore()
		modalStore  modal.Store   = modal.NewMemoryStore()
	)
	if config.Conf.Redis.Enabled {
		redisClient, err = redisdb.Open(ctx, config.Conf.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("[Main] Failed to connect to redis")
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient)
		modalStore = modal.NewRedisStore(redisClient, config.Conf.Redis.ModalTTL)
		log.Info().Msg("[Main] Redis enabled for sessions and modal state")
	}

	// 저장소
	accStore := accountStore.NewStore(db)
	spcStore := spaceStore.NewStore(db)
	prjStore := projectStore.NewStore(db)
	stsStore := statusStore.NewStore(db)
	itmStore := itemStore.NewStore(db)
	capStore := captureStore.NewStore(db)

	// 서비스
	accountService := account.NewService(accStore)
	spaceService := space.NewService(spcStore)
	projectService := project.NewService(prjStore)
	statusService := status.NewService(stsStore)
	itemService := item.NewService(itmStore)
	captureService := capture.NewService(capStore)
	accountService.SetProvisioner(onboarding.NewProvisioner(spaceService, projectService))

	if err := accountService.EnsureDefaultAdmin(ctx, account.AdminBootstrap{
		Username: config.Conf.Auth.AdminUser,
		Password: config.Conf.Auth.AdminPassword,
		Nickname: config.Conf.Auth.AdminNickname,
	}); err != nil {
		log.Fatal().Err(err).Msg("[Main] Failed to bootstrap admin account")
	}

	authService := auth.NewService(accountService, sessions, auth.Config{
		Secret:         config.Conf.Auth.Secret,
		Issuer:         config.Conf.Auth.Issuer,
		AccessTokenTTL: config.Conf.Auth.AccessTTL,
		RefreshTTL:     config.Conf.Auth.RefreshTTL,
		AllowSignup:    config.Conf.Auth.AllowSignup,
	})

	// 검색: meilisearch가 없거나 죽어 있으면 DB LIKE 검색으로 대체
	var (
		meili  *search.Meili
		engine search.Engine
	)
	if config.Conf.Search.Enabled {
		meili = search.NewMeili(config.Conf.Search.URL, config.Conf.Search.APIKey)
		defer meili.Close()
		engine = meili
	}
	searchService := search.NewService(engine, search.NewDatabase(db))
	itemService.SetIndexer(searchService)
	spaceService.SetIndexer(searchService)
	captureService.SetIndexer(searchService)
	if meili != nil {
		go func() {
			if err := searchService.Reindex(ctx); err != nil {
				log.Warn().Err(err).Msg("[Main] Initial search reindex failed")
			}
		}()
	}

	var uploader export.Uploader
	if config.Conf.Export.Enabled {
		minioUploader, err := export.NewMinioUploader(ctx, export.MinioConfig{
			Endpoint:  config.Conf.Export.Endpoint,
			AccessKey: config.Conf.Export.AccessKey,
			SecretKey: config.Conf.Export.SecretKey,
			Bucket:    config.Conf.Export.Bucket,
			UseSSL:    config.Conf.Export.UseSSL,
		})
		if err != nil {
			log.Error().Err(err).Msg("[Main] Export storage unavailable, uploads disabled")
		} else {
			uploader = minioUploader
		}
	}
	exportService := export.NewService(spcStore, capStore, uploader)

	// 노트 마운트 (WebDAV, SFTP)
	notes := notefs.NewBuilder(spcStore, capStore)
	sftpService := sftp.NewService(notes, accountService, config.Conf.Server.SftpEnabled, config.Conf.Server.SftpPort)
	if err := sftpService.Start(); err != nil {
		log.Error().Err(err).Msg("[Main] Failed to start SFTP server")
	}

	// RPC
	router := rpc.NewRouter(auth.RPCSession)
	authHandler := auth.NewHandler(authService)
	healthHandler := health.NewHandler(config.Conf.Server.Port, healthChecks(db, redisClient, searchService, sftpService)...)

	authHandler.RegisterProcedures(router)
	healthHandler.RegisterProcedures(router)
	spaceHandler.NewHandler(spaceService).Register(router)
	projectHandler.NewHandler(projectService).Register(router)
	statusHandler.NewHandler(statusService).Register(router)
	itemHandler.NewHandler(itemService).Register(router)
	captureHandler.NewHandler(captureService).Register(router)
	modal.NewHandler(modalStore).Register(router)
	search.NewHandler(searchService).Register(router)
	export.NewHandler(exportService).Register(router)

	// 라우터 생성
	mux := http.NewServeMux()
	router.RegisterRoutes(mux)
	authHandler.RegisterRoutes(mux)
	healthHandler.RegisterRoutes(mux)
	account.NewHandler(accountService).RegisterRoutes(mux)
	config.NewHandler().RegisterRoutes(mux)
	system.NewHandler(system.Meta{Version: version, Commit: commit, BuildDate: buildDate}, dataDir()).RegisterRoutes(mux)

	if config.Conf.Server.WebdavEnabled {
		davHandler := webdavHandler.NewHandler(webdav.NewService(notes), accountService)
		registerWebDAVRoutes(mux, web.Handler(davHandler.ServeHTTP))
	}

	if dir := config.Conf.Server.WebDir; dir != "" {
		spaHandler, err := spa.FromDir(dir)
		if err != nil {
			log.Error().Err(err).Msg("[Main] Failed to create SPA handler")
		} else {
			mux.HandleFunc("/", spaHandler)
		}
	}

	server := &http.Server{
		Addr:              ":" + config.Conf.Server.Port,
		Handler:           web.Logger(authService.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("[Main] Server is running on port %s", config.Conf.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("[Main] Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("[Main] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("[Main] Graceful shutdown failed")
	}
	if err := sftpService.Stop(); err != nil {
		log.Error().Err(err).Msg("[Main] Failed to stop SFTP server")
	}
	searchService.Wait()
	log.Info().Msg("[Main] Server stopped")
}

// registerWebDAVRoutes는 /dav 와 /dav/ 를 리다이렉트 없이 같은 핸들러로 보냅니다
func registerWebDAVRoutes(mux *http.ServeMux, handler http.Handler) {
	mux.Handle(webdav.Prefix, handler)
	mux.Handle(webdav.Prefix+"/", handler)
}

func setupLogger(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func healthChecks(db *database.DB, redisClient *redis.Client, searchService *search.Service, sftpService *sftp.Service) []health.Check {
	checks := []health.Check{
		{Name: "database", Enabled: true, Ping: db.PingContext},
		{
			Name:    "search",
			Enabled: config.Conf.Search.Enabled,
			Ping: func(context.Context) error {
				if !searchService.Healthy() {
					return errors.New("search engine unreachable, using database fallback")
				}
				return nil
			},
		},
		{
			Name:    "sftp",
			Port:    strconv.Itoa(config.Conf.Server.SftpPort),
			Enabled: config.Conf.Server.SftpEnabled,
			Ping: func(context.Context) error {
				if !sftpService.Running() {
					return errors.New("sftp server is not running")
				}
				return nil
			},
		},
		{Name: "webdav", Path: webdav.Prefix, Enabled: config.Conf.Server.WebdavEnabled},
	}
	if redisClient != nil {
		checks = append(checks, health.Check{
			Name:    "redis",
			Enabled: true,
			Ping: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}
	return checks
}

// dataDir은 sqlite 파일이 있는 디렉토리입니다. 디스크 사용량 표시에 씁니다.
func dataDir() string {
	if config.Conf.Datasource.Driver != "" && !strings.HasPrefix(config.Conf.Datasource.Driver, "sqlite") {
		return "."
	}
	return filepath.Dir(strings.TrimPrefix(config.Conf.Datasource.URL, "file:"))
}
