// Package servecmder provides the serve command that runs the ingest API.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/api"
	"github.com/papercomputeco/platelog/pkg/config"
	"github.com/papercomputeco/platelog/pkg/convstore"
	convinmemory "github.com/papercomputeco/platelog/pkg/convstore/inmemory"
	convpostgres "github.com/papercomputeco/platelog/pkg/convstore/postgres"
	convsqlite "github.com/papercomputeco/platelog/pkg/convstore/sqlite"
	"github.com/papercomputeco/platelog/pkg/eventstream"
	"github.com/papercomputeco/platelog/pkg/eventstream/kafka"
	"github.com/papercomputeco/platelog/pkg/eventstream/nop"
	"github.com/papercomputeco/platelog/pkg/fooddb/fatsecret"
	"github.com/papercomputeco/platelog/pkg/foodlog"
	loginmemory "github.com/papercomputeco/platelog/pkg/foodlog/inmemory"
	logpostgres "github.com/papercomputeco/platelog/pkg/foodlog/postgres"
	logsqlite "github.com/papercomputeco/platelog/pkg/foodlog/sqlite"
	"github.com/papercomputeco/platelog/pkg/graph"
	"github.com/papercomputeco/platelog/pkg/graph/nodes"
	"github.com/papercomputeco/platelog/pkg/logger"
	"github.com/papercomputeco/platelog/pkg/nlu/openai"
	"github.com/papercomputeco/platelog/pkg/state"
)

type ServeCommander struct {
	configDir string
	debug     bool
	v         *viper.Viper
	logger    *zap.Logger
}

const serveLongDesc string = `Run the Platelog ingest API server.

The server accepts user messages on POST /v1/ingest, drives the conversation
graph, and persists food log entries. Configuration comes from config.toml,
PLATELOG_* environment variables, and flags.`

const serveShortDesc string = "Run the Platelog ingest API server"

var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name: "listen", Shorthand: "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagStorageDriver: {
		Name:        "storage-driver",
		ViperKey:    "storage.driver",
		Description: "Storage backend (sqlite, postgres, inmemory)",
	},
	config.FlagSQLite: {
		Name: "sqlite", Shorthand: "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to the SQLite database",
	},
	config.FlagPostgresDSN: {
		Name:        "postgres-dsn",
		ViperKey:    "storage.postgres_dsn",
		Description: "Postgres connection string",
	},
	config.FlagNLUTarget: {
		Name:        "nlu-target",
		ViperKey:    "nlu.target",
		Description: "Language model API base URL",
	},
	config.FlagNLUModel: {
		Name:        "nlu-model",
		ViperKey:    "nlu.model",
		Description: "Language model for text tasks",
	},
	config.FlagEventProvider: {
		Name:        "event-provider",
		ViperKey:    "event_stream.provider",
		Description: "Entry event backend (kafka, nop)",
	},
	config.FlagEventBrokers: {
		Name:        "event-brokers",
		ViperKey:    "event_stream.brokers",
		Description: "Comma-separated Kafka broker addresses",
	},
	config.FlagEventTopic: {
		Name:        "event-topic",
		ViperKey:    "event_stream.topic",
		Description: "Kafka topic for entry events",
	},
	config.FlagConvTTL: {
		Name:        "conversation-ttl",
		ViperKey:    "conversations.ttl_minutes",
		Description: "Minutes a suspended conversation stays resumable",
	},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagNLUTarget,
	config.FlagNLUModel,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
	config.FlagConvTTL,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	var flagTargets struct {
		listen, storageDriver, sqlitePath, postgresDSN string
		nluTarget, nluModel                            string
		eventProvider, eventBrokers, eventTopic        string
		convTTL                                        uint
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.configDir, "config-dir", "c", "", "Directory holding config.toml")
	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &flagTargets.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageDriver, &flagTargets.storageDriver)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &flagTargets.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgresDSN, &flagTargets.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagNLUTarget, &flagTargets.nluTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagNLUModel, &flagTargets.nluModel)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventProvider, &flagTargets.eventProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventBrokers, &flagTargets.eventBrokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventTopic, &flagTargets.eventTopic)
	config.AddUintFlag(cmd, serveFlags, config.FlagConvTTL, &flagTargets.convTTL)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, conversations, err := c.newStores(ctx)
	if err != nil {
		return err
	}
	defer entries.Close()
	defer conversations.Close()

	nluService, err := openai.New(&openai.Config{
		Target:      c.v.GetString("nlu.target"),
		Model:       c.v.GetString("nlu.model"),
		VisionModel: c.v.GetString("nlu.vision_model"),
		APIKey:      c.v.GetString("nlu.api_key"),
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating NLU service: %w", err)
	}

	foodDB, err := fatsecret.New(&fatsecret.Config{
		Target:       c.v.GetString("food_db.target"),
		TokenURL:     c.v.GetString("food_db.token_url"),
		ClientID:     c.v.GetString("food_db.client_id"),
		ClientSecret: c.v.GetString("food_db.client_secret"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating food database client: %w", err)
	}

	events, err := c.newEventPool()
	if err != nil {
		return err
	}
	defer events.Close()

	nodeSet, err := nodes.NewSet(nodes.Deps{
		NLU:     nluService,
		FoodDB:  foodDB,
		Entries: entries,
		Events:  events,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating graph nodes: %w", err)
	}

	executor, err := graph.NewExecutor(graph.Config{
		Entry:    state.NodeDetectInput,
		Registry: nodeSet.Registry(),
		Routes:   graph.DefaultRoutes(),
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating graph executor: %w", err)
	}

	reaper := convstore.NewReaper(conversations,
		time.Duration(c.v.GetUint("conversations.reap_minutes"))*time.Minute, c.logger)
	reaper.Start(ctx)
	defer reaper.Stop()

	server := api.NewServer(api.Config{
		ListenAddr:      c.v.GetString("api.listen"),
		ConversationTTL: time.Duration(c.v.GetUint("conversations.ttl_minutes")) * time.Minute,
	}, executor, conversations, entries, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("api server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return server.Shutdown()
	}
}

// newStores builds the food-log store and conversation store on the
// configured backend. Both always share the same backend.
func (c *ServeCommander) newStores(ctx context.Context) (foodlog.Store, convstore.Driver, error) {
	driver := c.v.GetString("storage.driver")
	switch driver {
	case "sqlite":
		path := c.v.GetString("storage.sqlite_path")
		entries, err := logsqlite.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("creating sqlite food log: %w", err)
		}
		conversations, err := convsqlite.NewDriver(path)
		if err != nil {
			entries.Close()
			return nil, nil, fmt.Errorf("creating sqlite conversation store: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return entries, conversations, nil

	case "postgres":
		dsn := c.v.GetString("storage.postgres_dsn")
		entries, err := logpostgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("creating postgres food log: %w", err)
		}
		conversations, err := convpostgres.NewDriver(ctx, dsn)
		if err != nil {
			entries.Close()
			return nil, nil, fmt.Errorf("creating postgres conversation store: %w", err)
		}
		c.logger.Info("using Postgres storage")
		return entries, conversations, nil

	case "inmemory":
		c.logger.Info("using in-memory storage")
		return loginmemory.NewStore(), convinmemory.NewDriver(), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// newEventPool builds the async entry-event publisher on the configured
// backend.
func (c *ServeCommander) newEventPool() (*eventstream.Pool, error) {
	var publisher eventstream.Publisher
	switch provider := c.v.GetString("event_stream.provider"); provider {
	case "kafka":
		brokers := strings.Split(c.v.GetString("event_stream.brokers"), ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   c.v.GetString("event_stream.topic"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		publisher = p
		c.logger.Info("publishing entry events to kafka",
			zap.Strings("brokers", brokers))
	case "nop", "":
		publisher = nop.NewPublisher()
	default:
		return nil, fmt.Errorf("unknown event stream provider %q", provider)
	}

	return eventstream.NewPool(&eventstream.PoolConfig{
		Publisher: publisher,
		Logger:    c.logger,
	})
}
