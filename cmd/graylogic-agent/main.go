// Gray Logic Agent - sensor runtime for a single deployment.
//
// The agent loads a deployment definition (devices, commands, sensors and
// rules), polls or subscribes to every sensor, vetoes updates through the
// rule engine and publishes committed states to the local history, MQTT
// and InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-agent/internal/agent"
	"github.com/nerrad567/gray-logic-agent/internal/audit"
	"github.com/nerrad567/gray-logic-agent/internal/command"
	"github.com/nerrad567/gray-logic-agent/internal/command/mqttcmd"
	"github.com/nerrad567/gray-logic-agent/internal/command/virtual"
	"github.com/nerrad567/gray-logic-agent/internal/deployment"
	"github.com/nerrad567/gray-logic-agent/internal/history"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-agent/internal/rules"
	"github.com/nerrad567/gray-logic-agent/internal/sensor"
	"github.com/nerrad567/gray-logic-agent/internal/statestore"
	"github.com/nerrad567/gray-logic-agent/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// pruneInterval is how often expired history is deleted.
const pruneInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the agent and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Agent",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	agentID := cfg.Agent.ID
	if agentID == "" {
		agentID = uuid.NewString()
		log.Info("no agent id configured, generated one", "agent_id", agentID)
	}
	log = log.With("agent_id", agentID)

	def, err := deployment.LoadDefinition(cfg.Agent.DeploymentFile)
	if err != nil {
		return fmt.Errorf("loading deployment: %w", err)
	}
	log.Info("deployment definition loaded",
		"path", cfg.Agent.DeploymentFile,
		"sensors", len(def.Sensors),
		"commands", len(def.Commands),
		"rules", len(def.Rules),
	)

	handler := statestore.New(log)
	builder := command.NewProtocolBuilder()
	builder.Register(virtual.Protocol, virtual.NewBuilder(virtual.NewSimulator()))

	agentOpts := []agent.Option{agent.WithLogger(log)}

	// Local state history and audit trail (optional)
	var db *database.DB
	if cfg.History.Enabled {
		db, err = openHistory(ctx, cfg, agentID, handler, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		agentOpts = append(agentOpts, agent.WithAuditor(audit.NewRecorder(audit.NewSQLiteRepository(db.DB), agentID, log)))
	} else {
		log.Info("state history disabled")
	}

	// MQTT transport and state publishing (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(ctx, cfg.MQTT, agentID)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		builder.Register(mqttcmd.Protocol, mqttcmd.NewBuilder(mqttClient, byte(cfg.MQTT.QoS), log))
		handler.AddListener(mqtt.NewStatePublisher(mqttClient, agentID, log).Listen)
	} else {
		log.Info("MQTT disabled")
	}

	engine, err := rules.NewProcessor(def.Rules, log)
	if err != nil {
		return fmt.Errorf("compiling rules: %w", err)
	}

	dep, err := deployment.New(def, builder, handler, engine,
		deployment.WithLogger(log),
		deployment.WithPollInterval(cfg.Agent.PollInterval),
		deployment.WithStopTimeout(cfg.Agent.StopTimeout),
	)
	if err != nil {
		return fmt.Errorf("building deployment: %w", err)
	}

	// InfluxDB export (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, agentID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		handler.AddListener(influxClient.StateListener(sensorKind(dep)))
	} else {
		log.Info("InfluxDB disabled")
	}

	agentCtx, err := agent.New(agentID, dep, agentOpts...)
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}
	// Listeners drain during Stop, after ctx is already cancelled.
	if err := agentCtx.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting agent: %w", err)
	}
	log.Info("Gray Logic Agent started",
		"sensors", len(dep.Sensors()),
		"rules", engine.Len(),
		"poll_interval", dep.PollInterval(),
	)

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		log.Warn("startup health check failed", "error", err)
	}

	<-ctx.Done()
	log.Info("shutdown signal received, stopping agent")

	if err := agentCtx.Stop(); err != nil {
		log.Error("agent stopped with errors", "error", err)
	}

	log.Info("Gray Logic Agent stopped")
	return nil
}

// openHistory opens the database, applies migrations and registers the
// history recorder and pruner on handler.
func openHistory(ctx context.Context, cfg *config.Config, agentID string, handler *statestore.Handler, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	recorder := history.NewRecorder(history.NewSQLiteRepository(db.DB, agentID), log)
	handler.AddListener(recorder.Listen)

	if retention := cfg.HistoryRetention(); retention > 0 {
		go recorder.RunPruner(ctx, retention, pruneInterval)
	}
	return db, nil
}

// sensorKind resolves sensor kinds from the deployment.
func sensorKind(dep *deployment.Deployment) influxdb.KindFunc {
	return func(sensorID int) (sensor.Kind, bool) {
		s, ok := dep.Sensor(sensorID)
		if !ok {
			return "", false
		}
		return s.Kind(), true
	}
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck checks every enabled backend. nil clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
