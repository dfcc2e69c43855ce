// Package app initializes the application container: Genkit, the database
// pool, the knowledge store, the RAG pipeline, the agents and the
// orchestrator service, wired once at process start and passed by reference
// into command and request handlers.
package app

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathwise/pathwise/db"
	"github.com/pathwise/pathwise/internal/agents"
	"github.com/pathwise/pathwise/internal/config"
	"github.com/pathwise/pathwise/internal/knowledge"
	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/observability"
	"github.com/pathwise/pathwise/internal/orchestrator"
	"github.com/pathwise/pathwise/internal/rag"
	"github.com/pathwise/pathwise/internal/state"
)

// Options tunes Setup beyond what the configuration carries.
type Options struct {
	// CourseSource supplies course material for indexing. Nil disables the
	// indexer; retrieval still works against already-indexed content.
	CourseSource rag.CourseSource

	// SkipDatabase runs without a vector store: no pool, no retrieval, no
	// indexing. Chat turns then see an empty retrieved context.
	SkipDatabase bool

	// Migrate applies pending schema migrations before opening the pool.
	Migrate bool
}

// App is the application container.
type App struct {
	Config    *config.Config
	Logger    log.Logger
	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Pool      *pgxpool.Pool
	Knowledge *knowledge.Store
	Indexer   *rag.Indexer
	Retriever *rag.Retriever
	Service   *orchestrator.Service

	shutdownTracing func(context.Context) error
}

// Setup builds the container. The returned App must be closed.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = log.NewNop()
	}

	shutdownTracing, err := observability.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)

	a := &App{
		Config:          cfg,
		Logger:          logger,
		Genkit:          g,
		Embedder:        embedder,
		shutdownTracing: shutdownTracing,
	}

	var retriever orchestrator.LessonRetriever
	if !opts.SkipDatabase {
		if opts.Migrate {
			if err := db.Migrate(cfg.DatabaseURL(), logger); err != nil {
				return nil, fmt.Errorf("migrating database: %w", err)
			}
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("opening database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("pinging database: %w", err)
		}

		a.Pool = pool
		a.Knowledge = knowledge.New(pool, embedder, logger)
		a.Retriever = rag.NewRetriever(a.Knowledge, logger)
		retriever = a.Retriever

		if opts.CourseSource != nil {
			a.Indexer = rag.NewIndexer(a.Knowledge, opts.CourseSource, cfg.ChunkSize, cfg.ChunkOverlap, logger)
		}
	}

	backend, err := agents.NewBackend(g, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating model backend: %w", err)
	}

	graph, err := orchestrator.NewGraph(logger,
		agents.NewTutor(backend.ClientFor(state.AgentTutor)),
		agents.NewAssessor(backend.ClientFor(state.AgentAssessor)),
		agents.NewCodeReviewer(backend.ClientFor(state.AgentCodeReview)),
		agents.NewMentor(backend.ClientFor(state.AgentMentor)),
		agents.NewProjectGuide(backend.ClientFor(state.AgentProjectGuide)),
		agents.NewQuizGenerator(backend.ClientFor(state.AgentQuizGenerator)),
	)
	if err != nil {
		return nil, fmt.Errorf("building agent graph: %w", err)
	}

	service, err := orchestrator.NewService(graph, retriever, logger)
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator service: %w", err)
	}
	a.Service = service

	return a, nil
}

// Close releases the container's resources: the database pool and the trace
// exporter.
func (a *App) Close(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			return fmt.Errorf("shutting down tracing: %w", err)
		}
	}
	return nil
}
