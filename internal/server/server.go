package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	v1 "davisboard/internal/api/v1"
	"davisboard/internal/config"
	"davisboard/internal/logging"
	"davisboard/internal/service/session"
	"davisboard/internal/store"
)

// devFrontend 开发模式下的前端开发服务器
const devFrontend = "http://localhost:5173"

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	store    *store.Store
	sessions *session.Store
	v1       *v1.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.ResolveDataDir(cfg)
	if err != nil {
		logging.Logger().Warn("resolve data dir failed, using configured path", "error", err)
		dataDir = cfg.Data.DataDir
	}

	// 初始化 SQLite Store
	sqliteStore, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sessions, err := session.NewStore(dataDir)
	if err != nil {
		_ = sqliteStore.Close()
		return nil, err
	}

	s := &Server{
		router:   gin.Default(),
		store:    sqliteStore,
		sessions: sessions,
		v1: v1.NewHandler(sqliteStore, sessions, v1.Options{
			QuarterYear: cfg.Table.QuarterYear,
			MyMills:     cfg.Table.MyMills,
			ExportDir:   filepath.Join(dataDir, "exports"),
		}),
	}

	s.setupRoutes(devMode)
	logging.Logger().Info("server ready", "dataDir", dataDir, "dev", devMode)

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS：组件嵌入在宿主页面中
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, devFrontend+c.Request.URL.Path)
		})
		return
	}

	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/api/datasets")
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found: " + c.Request.URL.Path})
	})
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler 路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// SaveNow 立即持久化会话状态；数据集本身由 SQLite 自动持久化
func (s *Server) SaveNow() error {
	return s.sessions.SaveNow()
}

// Close 保存会话并关闭数据库
func (s *Server) Close() error {
	saveErr := s.SaveNow()
	if err := s.store.Close(); err != nil {
		return err
	}
	return saveErr
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
