package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/config"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/db/kvdb"
	"github.com/meghashyamc/apidoxsearch/db/searchdb"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/metrics"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/lookup"
	"github.com/meghashyamc/apidoxsearch/services/offline"
	"github.com/meghashyamc/apidoxsearch/services/scan"
	"github.com/meghashyamc/apidoxsearch/validation"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	kvdb       kvdb.DB
	searchdb   searchdb.DB
	fetcher    *corpus.Fetcher
	index      *offline.Index
	scan       *scan.Service
	lookup     *lookup.Service
	renderer   *render.Renderer
	validator  *validation.Validator
	mounts     []corpus.Mount
	logger     logger.Logger
}

// Run serves until ctx is cancelled or the process is interrupted. The offline
// index is built and the asset cache warmed while the server is already up.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.New(cfg.GetLogLevel()),
	}
	if err := s.setupDependencies(); err != nil {
		return err
	}
	defer s.closeDependencies()

	if err := s.setupMounts(); err != nil {
		return err
	}
	s.setupRouter()
	s.setupHTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.listen)
	g.Go(func() error {
		s.warmUp(gctx)
		return nil
	})
	g.Go(func() error {
		return s.shutdownOnDone(gctx)
	})

	return g.Wait()
}

func (s *server) setupDependencies() error {
	var err error

	var cache corpus.AssetCache
	if path := s.cfg.GetKVDBPath(); path != "" {
		boltDB, err := kvdb.New(s.logger, path, s.cfg.GetCacheVersion())
		if err != nil {
			s.logger.Error("error creating asset cache", "err", err.Error())
			return err
		}
		s.kvdb = boltDB
		cache = boltDB
	} else {
		s.logger.Warn("no asset cache path configured, corpora will always be fetched")
	}

	s.searchdb, err = searchdb.New(s.logger)
	if err != nil {
		s.logger.Error("error creating searchDB", "err", err.Error())
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}
	s.renderer, err = render.New()
	if err != nil {
		s.logger.Error("error creating renderer", "err", err.Error())
		return err
	}

	s.fetcher = corpus.NewFetcher(s.logger, s.cfg.GetDocsRoot(), cache)
	s.fetcher.AllowOrigins(s.cfg.GetCacheOrigins()...)
	s.index = offline.NewIndex(s.logger, s.searchdb, s.fetcher, s.cfg.GetOfflineIndexSrc(), s.cfg.GetOfflineBaseHref())
	s.scan = scan.New(s.logger, scan.Options{LiteralQuery: s.cfg.GetScanLiteralQuery()})
	s.lookup = lookup.New(s.logger, s.cfg.GetLookupMapsDir(), s.cfg.GetLookupSiteRoot(), s.cfg.GetLookupFallback())

	return nil
}

// setupMounts combines configured mounts with discovered ones. A configured
// route wins over a discovered route.
func (s *server) setupMounts() error {
	mounts, err := s.cfg.GetScanMounts()
	if err != nil {
		s.logger.Error("error reading scan mounts", "err", err.Error())
		return err
	}

	if root := s.cfg.GetDocsRoot(); root != "" && s.cfg.GetDiscoverCorpora() {
		discovered, err := corpus.Discover(s.logger, root, s.cfg.GetCorpusName())
		if err != nil {
			s.logger.Error("error discovering corpora", "root", root, "err", err.Error())
			return err
		}
		mounts = mergeMounts(mounts, discovered)
	}

	if err := s.validator.ValidateMounts(mounts); err != nil {
		s.logger.Error("invalid scan mounts", "err", err.Error())
		return err
	}

	s.mounts = mounts
	s.logger.Info("search pages mounted", "count", len(mounts))
	return nil
}

func mergeMounts(configured []corpus.Mount, discovered []corpus.Mount) []corpus.Mount {
	routes := map[string]bool{}
	for _, mount := range configured {
		routes[mount.Route] = true
	}

	merged := append([]corpus.Mount{}, configured...)
	for _, mount := range discovered {
		if routes[mount.Route] {
			continue
		}
		routes[mount.Route] = true
		merged = append(merged, mount)
	}

	return merged
}

func (s *server) setupRouter() {
	router := newRouter(s.logger)

	setupRoutes(router, s.logger, routeDeps{
		mounts:    s.mounts,
		fetcher:   s.fetcher,
		scan:      s.scan,
		index:     s.index,
		lookup:    s.lookup,
		renderer:  s.renderer,
		validator: s.validator,
		docsRoot:  s.cfg.GetDocsRoot(),
	})

	s.router = router
}

func (s *server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}
}

func (s *server) listen() error {
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("http server failed", "err", err.Error())
		return err
	}
	return nil
}

// warmUp builds the offline index and pre-caches the configured assets.
func (s *server) warmUp(ctx context.Context) {
	s.index.Build(ctx)
	metrics.OfflineIndexDocuments.Set(float64(s.index.DocumentCount()))

	if urls := s.cfg.GetPrecacheURLs(); len(urls) > 0 {
		cached := s.fetcher.Precache(ctx, urls)
		s.logger.Info("asset cache warmed", "cached", cached, "requested", len(urls))
	}
}

func (s *server) shutdownOnDone(ctx context.Context) error {
	<-ctx.Done()
	s.logger.Info("starting to shut down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", "err", err.Error())
		return err
	}

	s.logger.Info("shut down http server successfully")
	return nil
}

func (s *server) closeDependencies() {
	if s.kvdb != nil {
		if err := s.kvdb.Close(); err != nil {
			s.logger.Error("error closing asset cache", "err", err.Error())
		}
	}
	if s.searchdb != nil {
		if err := s.searchdb.Close(); err != nil {
			s.logger.Error("error closing searchDB", "err", err.Error())
		}
	}
}
