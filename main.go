package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/supportops/caseflow/pipeline/blob"
	contractx "github.com/supportops/caseflow/pipeline/contract"
	"github.com/supportops/caseflow/pipeline/intake"
	"github.com/supportops/caseflow/pipeline/knowledge"
	"github.com/supportops/caseflow/pipeline/llm"
	"github.com/supportops/caseflow/pipeline/notify"
	"github.com/supportops/caseflow/pipeline/resolution"
	"github.com/supportops/caseflow/pipeline/state"
	"github.com/supportops/caseflow/pipeline/synthesis"
	configx "github.com/supportops/caseflow/pkg/config"
	_ "github.com/supportops/caseflow/pkg/logger/autoload"
	openaiclientx "github.com/supportops/caseflow/pkg/openaiclient"
)

type AppConfig struct {
	StoreDriver      string `envconfig:"STORE_DRIVER" split_words:"true" default:"memory"`
	NotifyRecipient  string `envconfig:"NOTIFY_RECIPIENT" split_words:"true"`
	SenderName       string `envconfig:"SENDER_NAME" split_words:"true" default:"Support Manager"`
	KnowledgeEnabled bool   `envconfig:"KNOWLEDGE_ENABLED" split_words:"true" default:"false"`
	NotifyEnabled    bool   `envconfig:"NOTIFY_ENABLED" split_words:"true" default:"false"`
	SynthesisEnabled bool   `envconfig:"SYNTHESIS_ENABLED" split_words:"true" default:"false"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("CASEFLOW")

	store := newStore(ctx, appCfg.StoreDriver)

	llmCfg := configx.MustNew[llm.Config]("LLM")
	registry, err := llm.NewRegistry(ctx, *llmCfg)
	if err != nil {
		panic(err)
	}

	var retriever contractx.Retriever
	if appCfg.KnowledgeEnabled {
		searchCfg := configx.MustNew[knowledge.Config]("SEARCH")
		embeddings := openaiclientx.NewSDKClient(llmCfg.ClientFor(""))
		client, err := knowledge.NewClient(*searchCfg, knowledge.WithEmbeddings(embeddings))
		if err != nil {
			panic(err)
		}
		retriever = client
	}

	var notifier contractx.Notifier
	if appCfg.NotifyEnabled {
		emailCfg := configx.MustNew[notify.Config]("EMAIL")
		client, err := notify.NewEmailClient(*emailCfg)
		if err != nil {
			panic(err)
		}
		notifier = client
	}

	service, err := resolution.New(store, registry, retriever, notifier, resolution.Config{
		NotifyRecipient: appCfg.NotifyRecipient,
		SenderName:      appCfg.SenderName,
	})
	if err != nil {
		panic(err)
	}
	_ = service

	extractor, err := intake.NewExtractor(registry.Runtime(contractx.RoleCoordinator))
	if err != nil {
		panic(err)
	}
	_ = extractor
	session, err := intake.NewSession(store)
	if err != nil {
		panic(err)
	}
	_ = session

	if appCfg.SynthesisEnabled {
		synthCfg := configx.MustNew[synthesis.Config]("SYNTHESIS")
		synthClient, err := synthesis.NewClient(*synthCfg)
		if err != nil {
			panic(err)
		}
		poller, err := synthesis.NewPoller(synthClient, synthCfg.PollAttempts, synthCfg.PollInterval)
		if err != nil {
			panic(err)
		}
		_ = poller

		blobCfg := configx.MustNew[blob.Config]("BLOB")
		if _, err := blob.NewClient(*blobCfg); err != nil {
			panic(err)
		}
	}

	log.Info().
		Str("store_driver", appCfg.StoreDriver).
		Bool("knowledge", appCfg.KnowledgeEnabled).
		Bool("notify", appCfg.NotifyEnabled).
		Bool("synthesis", appCfg.SynthesisEnabled).
		Msg("case resolution pipeline wired")
	fmt.Println("caseflow ready")
}

func newStore(ctx context.Context, driver string) contractx.CaseStore {
	switch driver {
	case "postgres":
		pgCfg := configx.MustNew[state.PostgresConfig]("POSTGRES")
		store, err := state.NewPostgresStore(*pgCfg)
		if err != nil {
			panic(err)
		}
		if err := store.Init(ctx); err != nil {
			panic(err)
		}
		return store
	default:
		return state.NewMemoryStore()
	}
}
