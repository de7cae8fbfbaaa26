package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jonathan/interview-prep/internal/audit"
	"github.com/jonathan/interview-prep/internal/config"
	"github.com/jonathan/interview-prep/internal/db"
	"github.com/jonathan/interview-prep/internal/dispatch"
	"github.com/jonathan/interview-prep/internal/events"
	"github.com/jonathan/interview-prep/internal/fetch"
	"github.com/jonathan/interview-prep/internal/ingestion"
	"github.com/jonathan/interview-prep/internal/llm"
	"github.com/jonathan/interview-prep/internal/parsing"
	"github.com/jonathan/interview-prep/internal/pipeline"
	"github.com/jonathan/interview-prep/internal/pipeline/steps"
	"github.com/jonathan/interview-prep/internal/qa"
	"github.com/jonathan/interview-prep/internal/rendering"
	"github.com/jonathan/interview-prep/internal/research"
	"github.com/jonathan/interview-prep/internal/retrieval"
	"github.com/jonathan/interview-prep/internal/storage"
)

// app holds the collaborators built from one resolved configuration. It is shared by
// every run of a batch.
type app struct {
	cfg       config.Config
	model     llm.Client
	database  *db.DB
	searcher  research.Searcher
	retrieval retrieval.Store
	audit     audit.Store
	objects   storage.ObjectStore
	publisher events.Publisher
}

// newModelApp builds the model client and web search only. Single-stage commands use it.
func newModelApp(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	llmCfg := llm.DefaultConfig()
	if cfg.EmbeddingModel != "" {
		llmCfg.EmbeddingModel = cfg.EmbeddingModel
	}
	model, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, model: model}
	a.searcher = a.newSearcher(ctx)
	return a, nil
}

// newApp connects the model client and the optional sinks. Only the model client is
// required; an unreachable database, bucket or broker is logged and skipped.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a, err := newModelApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model := a.model

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: database unavailable, using local stores: %v", err)
		} else if err := database.Migrate(ctx); err != nil {
			log.Printf("Warning: failed to migrate database, using local stores: %v", err)
			database.Close()
		} else {
			a.database = database
		}
	}

	if a.database != nil {
		store, err := retrieval.NewPGStore(a.database.Pool(), model)
		if err != nil {
			log.Printf("Warning: vector store unavailable, using memory store: %v", err)
		} else {
			a.retrieval = store
		}
		a.audit = audit.NewSQLStore(a.database.SQL())
	}
	if a.retrieval == nil {
		mem := retrieval.NewMemoryStore(model)
		mem.Verbose = cfg.Verbose
		a.retrieval = mem
	}
	if a.audit == nil {
		a.audit = audit.NewFileStore(cfg.OutputDir)
	}

	if cfg.S3.Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Printf("Warning: artifact mirror disabled: %v", err)
		} else {
			a.objects = store
		}
	}

	if cfg.AMQP.URL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Printf("Warning: event publishing disabled: %v", err)
		} else {
			a.publisher = pub
		}
	}
	return a, nil
}

func (a *app) newSearcher(ctx context.Context) research.Searcher {
	if a.cfg.Search.APIKey == "" {
		return unconfiguredSearcher{}
	}
	s, err := research.NewGoogleSearcher(ctx, a.cfg.Search.APIKey, a.cfg.Search.EngineID)
	if err != nil {
		log.Printf("Warning: web search disabled: %v", err)
		return unconfiguredSearcher{}
	}
	return s
}

// unconfiguredSearcher answers every search with an error the model can read.
type unconfiguredSearcher struct{}

func (unconfiguredSearcher) Search(context.Context, string) ([]research.SearchResult, error) {
	return nil, fmt.Errorf("web search is not configured (set GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_CX)")
}

func (a *app) fetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	opts.UseBrowser = a.cfg.UseBrowser
	opts.Verbose = a.cfg.Verbose
	return opts
}

func (a *app) parser() *parsing.Parser {
	p := parsing.NewParser(ingestion.NewFileExtractor(a.fetchOptions()), a.model)
	p.Verbose = a.cfg.Verbose
	return p
}

func (a *app) researcher() *research.Researcher {
	r := research.NewResearcher(a.model, a.searcher, &research.WebFetcher{Options: a.fetchOptions()})
	if a.cfg.MaxToolSteps > 0 {
		r.MaxToolSteps = a.cfg.MaxToolSteps
	}
	r.Verbose = a.cfg.Verbose
	return r
}

func (a *app) generator() *qa.Generator {
	g := qa.NewGenerator(a.model, a.retrieval)
	g.Verbose = a.cfg.Verbose
	return g
}

// dispatcher builds the Stage 4 dispatcher. The mailer is nil when SMTP is not configured,
// which turns a delivery request into a dispatch error.
func (a *app) dispatcher(renderer dispatch.Renderer) *dispatch.Dispatcher {
	var mailer dispatch.Mailer
	if a.cfg.SMTPReady() {
		m, err := dispatch.NewSMTPMailer(dispatch.SMTPSettings{
			Host:     a.cfg.SMTP.Host,
			Port:     a.cfg.SMTP.Port,
			User:     a.cfg.SMTP.User,
			Password: a.cfg.SMTP.Password,
			From:     a.cfg.SMTP.From,
		})
		if err != nil {
			log.Printf("Warning: %v", err)
		} else {
			mailer = m
		}
	}
	d := dispatch.NewDispatcher(renderer, mailer)
	d.Verbose = a.cfg.Verbose
	return d
}

// orchestrator wires a fresh pipeline. Progress lines go to out.
func (a *app) orchestrator(out io.Writer) *pipeline.Orchestrator {
	renderer := rendering.NewPackRenderer()
	o := &pipeline.Orchestrator{
		Parser:     a.parser(),
		Researcher: a.researcher(),
		Generator:  a.generator(),
		Dispatcher: a.dispatcher(renderer),
		Rounds:     renderer,
		Retrieval:  a.retrieval,
		Audit:      a.audit,
		Objects:    a.objects,
		Out:        out,
		Verbose:    a.cfg.Verbose,
	}
	if a.database != nil {
		o.Tracker = a.database
	}
	if a.publisher != nil {
		o.OnProgress = a.publish
	}
	return o
}

// publish forwards a progress event to the broker. Failures are logged.
func (a *app) publish(ev pipeline.ProgressEvent) {
	typ := events.TypeProgress
	if ev.Step == steps.StateDone {
		typ = events.TypeRunCompleted
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.publisher.Publish(ctx, events.Event{
		Type:     typ,
		RunID:    ev.RunID,
		Step:     ev.Step,
		Category: ev.Category,
		Message:  ev.Message,
		Payload:  ev.Content,
	})
	if err != nil {
		log.Printf("Warning: failed to publish %s event: %v", ev.Step, err)
	}
}

func (a *app) Close() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
	if a.model != nil {
		_ = a.model.Close()
	}
}
