package agent

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"polymode/backend/internal/adapter"
	"polymode/backend/internal/mode"
	"polymode/backend/internal/profile"
	"polymode/backend/internal/supermemory"
	"polymode/backend/pkg/config"
	"polymode/backend/pkg/logger"
)

// crossFanoutLimit bounds concurrent cross-mode searches
const crossFanoutLimit = 4

// writeBackTimeout bounds the detached write-back after a turn completes
const writeBackTimeout = 30 * time.Second

// Orchestrator assembles the per-turn context bundle and owns the chat
// turn's write-back. Every sub-fetch is independently failure-tolerant: a
// failed slice degrades to empty and the turn still reaches the LLM.
type Orchestrator struct {
	store    *supermemory.Client
	profiles *profile.Store
	llm      *adapter.LLMAdapter
	cfg      *config.Config
	logger   *zap.Logger
}

// NewOrchestrator creates a new context orchestrator
func NewOrchestrator(store *supermemory.Client, profiles *profile.Store, llm *adapter.LLMAdapter, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:    store,
		profiles: profiles,
		llm:      llm,
		cfg:      cfg,
		logger:   logger.Get(),
	}
}

// BuildContext composes profile slice + recent + long-term + cross-mode
// memories into a bounded bundle. The independent fetches are issued
// concurrently; results merge only after all have returned or timed out.
func (o *Orchestrator) BuildContext(ctx context.Context, userID string, modeCfg mode.Config, message string) *ContextBundle {
	bundle := &ContextBundle{
		ActiveMode:    modeCfg.Key,
		BaseRole:      modeCfg.BaseRole,
		StaticProfile: map[string]interface{}{},
	}

	var (
		prof       *profile.UserProfile
		recent     []supermemory.Memory
		candidates []supermemory.Memory
		crossRaw   [][]supermemory.Memory
	)
	crossRaw = make([][]supermemory.Memory, len(modeCfg.CrossModeSources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(crossFanoutLimit)

	g.Go(func() error {
		tctx, cancel := context.WithTimeout(gctx, o.cfg.StoreTimeout)
		defer cancel()
		prof = o.profiles.Get(tctx, userID)
		return nil
	})
	g.Go(func() error {
		tctx, cancel := context.WithTimeout(gctx, o.cfg.StoreTimeout)
		defer cancel()
		recent = o.store.Recent(tctx, userID, modeCfg.Key, o.cfg.RecentLimit)
		return nil
	})
	g.Go(func() error {
		tctx, cancel := context.WithTimeout(gctx, o.cfg.StoreTimeout)
		defer cancel()
		candidates = o.store.Search(tctx, userID, message, modeCfg.Key, o.cfg.SearchLimit)
		return nil
	})
	for i, source := range modeCfg.CrossModeSources {
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gctx, o.cfg.StoreTimeout)
			defer cancel()
			crossRaw[i] = o.store.Search(tctx, userID, message, source, o.cfg.PerSourceLimit)
			return nil
		})
	}
	// Sub-fetches never return errors; they degrade their slice to empty
	_ = g.Wait()

	now := time.Now().UTC()

	bundle.StaticProfile = prof.StaticSlice(modeCfg.BaseRole)
	if cross := prof.CrossRoleSlice(modeCfg.BaseRole); len(cross) > 0 {
		bundle.CrossRoleProfile = cross
	}
	bundle.RecentMemories = recent
	bundle.LongTermMemories = Rerank(candidates, message, now, o.cfg.LongTermCap)

	var merged []supermemory.Memory
	for _, chunk := range crossRaw {
		merged = append(merged, chunk...)
	}
	bundle.CrossRoleMemories = Rerank(merged, message, now, o.cfg.CrossModeCap)

	o.logger.Debug("Context bundle assembled",
		zap.String("user_id", userID),
		zap.String("mode", modeCfg.Key),
		zap.Int("recent", len(bundle.RecentMemories)),
		zap.Int("long_term", len(bundle.LongTermMemories)),
		zap.Int("cross_role", len(bundle.CrossRoleMemories)),
		zap.Bool("has_profile", prof != nil),
	)
	return bundle
}

// RunTurn executes one chat turn: assemble context, call the LLM, then
// persist observations asynchronously. The write-back is detached from the
// request lifetime; its failure never affects the reply.
func (o *Orchestrator) RunTurn(ctx context.Context, userID string, modeCfg mode.Config, message string) (string, *ContextBundle, error) {
	bundle := o.BuildContext(ctx, userID, modeCfg, message)

	systemPrompt, userPrompt := BuildPrompt(modeCfg, message, bundle)
	reply, err := o.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", bundle, err
	}

	go func() {
		wbCtx, cancel := context.WithTimeout(context.Background(), writeBackTimeout)
		defer cancel()
		ids := o.WriteBack(wbCtx, userID, modeCfg, message, reply)
		o.logger.Debug("Write-back completed",
			zap.String("user_id", userID),
			zap.String("mode", modeCfg.Key),
			zap.Int("memories_written", len(ids)),
		)
	}()

	return reply, bundle, nil
}
