package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/middleware"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ProvideHTTPServer = fx.Module("http.server",
	fx.Provide(
		RegisterRouter,
		NewHttpServer,
	),
	fx.Invoke(Run),
)

type Server struct {
	server     *http.Server
	socketPath string

	tlsMutex sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
}

// RegisterRouter builds the shared gin engine. Services attach their routes
// through fx.Invoke gateways.
func RegisterRouter(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.Channel(),
		middleware.Error(),
	)

	return router
}

type Params struct {
	fx.In
	Config  *config.Config
	Handler *gin.Engine
}

func NewHttpServer(p Params) *Server {
	cfg := p.Config
	srv := &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Addr),
			Handler:      p.Handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		certPath: cfg.TLS.CertPath,
		keyPath:  cfg.TLS.KeyPath,
	}

	if cfg.Server.UseUnixSocket {
		srv.socketPath = cfg.Server.UnixSocketPath
	}

	if cfg.TLS.Enable {
		srv.reloadCert()
		go srv.watchTLSFiles()

		srv.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			GetCertificate: func(info *tls.ClientHelloInfo) (*tls.Certificate, error) {
				srv.tlsMutex.RLock()
				defer srv.tlsMutex.RUnlock()

				if srv.cert == nil {
					return nil, fmt.Errorf("no TLS cert loaded")
				}

				return srv.cert, nil
			},
		}
	}

	return srv
}

// reloadCert swaps the certificate handed out by GetCertificate. Called
// on boot and whenever the files change on disk.
func (s *Server) reloadCert() {
	cert, err := tls.LoadX509KeyPair(s.certPath, s.keyPath)
	if err != nil {
		zap.L().Error("failed to reload TLS cert", zap.Error(err))
		return
	}

	s.tlsMutex.Lock()
	s.cert = &cert
	s.tlsMutex.Unlock()
	zap.L().Info("TLS certificate reloaded")
}

func (s *Server) watchTLSFiles() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		zap.L().Error("failed to create fsnotify watcher", zap.Error(err))
		return
	}
	defer watcher.Close()

	_ = watcher.Add(s.certPath)
	_ = watcher.Add(s.keyPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// cert rotation usually replaces the file instead of writing it
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.reloadCert()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			zap.L().Error("tls watcher error", zap.Error(err))
		}
	}
}

// listen binds the unix socket when configured, otherwise the TCP addr.
func (s *Server) listen() (net.Listener, error) {
	if s.socketPath != "" {
		// a socket left behind by a previous run would block the bind
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		return net.Listen("unix", s.socketPath)
	}

	return net.Listen("tcp", s.server.Addr)
}

func (s *Server) serve(ln net.Listener) {
	var err error
	if s.server.TLSConfig != nil {
		// GetCertificate drives the handshake, no files passed here
		err = s.server.ServeTLS(ln, "", "")
	} else {
		err = s.server.Serve(ln)
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Error("http server stopped", zap.Error(err))
	}
}

// Run binds the listener during startup so a busy port fails the boot
// instead of dying silently in a goroutine.
func Run(lc fx.Lifecycle, srv *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := srv.listen()
			if err != nil {
				return err
			}

			zap.L().Info("starting http server",
				zap.String("addr", ln.Addr().String()),
				zap.Bool("tls", srv.server.TLSConfig != nil),
			)
			go srv.serve(ln)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			zap.L().Info("shutting down http server")
			return srv.server.Shutdown(ctx)
		},
	})
}
