package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/dealdesk/internal/actorcontext"
	auditdomain "github.com/smallbiznis/dealdesk/internal/audit/domain"
	"github.com/smallbiznis/dealdesk/internal/config"
	contractdomain "github.com/smallbiznis/dealdesk/internal/contract/domain"
	templatedomain "github.com/smallbiznis/dealdesk/internal/contracttemplate/domain"
	customerdomain "github.com/smallbiznis/dealdesk/internal/customer/domain"
	"github.com/smallbiznis/dealdesk/internal/observability/logger"
	"github.com/smallbiznis/dealdesk/internal/observability/tracing"
	quotedomain "github.com/smallbiznis/dealdesk/internal/quote/domain"
	signupdomain "github.com/smallbiznis/dealdesk/internal/signup/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// NewEngine builds the shared gin engine with the standard middleware
// chain plus the health and metrics endpoints.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// ErrorHandlingMiddleware maps errors after the chain unwinds, so it
	// must sit above any middleware that can abort.
	r.Use(
		gin.Recovery(),
		logger.GinMiddleware(log),
		tracing.GinMiddleware(),
		ErrorHandlingMiddleware(),
		OrgContext(cfg),
		ActorContext(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Log         *zap.Logger
	Engine      *gin.Engine
	CustomerSvc customerdomain.Service
	QuoteSvc    quotedomain.Service
	ContractSvc contractdomain.Service
	TemplateSvc templatedomain.Service
	SignupSvc   signupdomain.Service
	AuditSvc    auditdomain.Service
}

type Server struct {
	log         *zap.Logger
	customerSvc customerdomain.Service
	quoteSvc    quotedomain.Service
	contractSvc contractdomain.Service
	templateSvc templatedomain.Service
	signupSvc   signupdomain.Service
	auditSvc    auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		log:         p.Log.Named("server"),
		customerSvc: p.CustomerSvc,
		quoteSvc:    p.QuoteSvc,
		contractSvc: p.ContractSvc,
		templateSvc: p.TemplateSvc,
		signupSvc:   p.SignupSvc,
		auditSvc:    p.AuditSvc,
	}

	v1 := p.Engine.Group("/v1")
	s.registerCustomerRoutes(v1)
	s.registerQuoteRoutes(v1)
	s.registerContractRoutes(v1)
	s.registerTemplateRoutes(v1)
	s.registerSignupRoutes(v1)
	s.registerAuditRoutes(v1)

	return s
}

func (s *Server) emitAudit(ctx context.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	actorType := "guest"
	if actorcontext.ActorIDFromContext(ctx) != "" {
		actorType = "user"
	}
	var target *string
	if targetID != "" {
		target = &targetID
	}
	if err := s.auditSvc.AuditLog(ctx, nil, actorType, nil, action, targetType, target, metadata); err != nil {
		s.log.Warn("failed to emit audit event", zap.String("action", action), zap.Error(err))
	}
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
