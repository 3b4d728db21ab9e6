package svc

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fachebot/talk-digest/internal/config"
	"github.com/fachebot/talk-digest/internal/llm"
	"github.com/fachebot/talk-digest/internal/logger"
	"github.com/fachebot/talk-digest/internal/metrics"
	"github.com/fachebot/talk-digest/internal/store"
	"github.com/fachebot/talk-digest/internal/summarizer"
)

type ServiceContext struct {
	Config         *config.Config
	DB             *sql.DB
	LLMRouter      *llm.Router
	Pipeline       *summarizer.Pipeline
	DigestRunModel *store.DigestRunModel
	Metrics        *metrics.Metrics
}

// NewServiceContext 创建 LLM 路由与总结流水线；withStore 为 true 时同时打开运行记录数据库
func NewServiceContext(ctx context.Context, c *config.Config, withStore bool) (*ServiceContext, error) {
	httpClient, err := llm.NewHTTPClient(c.Sock5Proxy)
	if err != nil {
		return nil, err
	}

	router, err := llm.NewRouter(ctx, &c.LLM, httpClient)
	if err != nil {
		return nil, err
	}

	svcCtx := &ServiceContext{
		Config:    c,
		LLMRouter: router,
		Pipeline:  summarizer.NewPipeline(router, metrics.Default),
		Metrics:   metrics.Default,
	}

	if withStore {
		db, err := store.Open(ctx, c.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("打开数据库失败: %w", err)
		}
		svcCtx.DB = db
		svcCtx.DigestRunModel = store.NewDigestRunModel(db)
	}
	return svcCtx, nil
}

func (svcCtx *ServiceContext) Close() {
	if svcCtx.DB == nil {
		return
	}
	if err := svcCtx.DB.Close(); err != nil {
		logger.Errorf("关闭数据库失败, %v", err)
	}
}
