package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/WPMirror/pkg/wordpress"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// SiteProbe is satisfied by *wordpress.Client.
type SiteProbe interface {
	BaseURL() string
	CountPosts(ctx context.Context, opts wordpress.Options) (int, error)
}

type ReadinessWaiter struct {
	mongoClient  *mongo.Client
	brokers      []string
	topic        string
	sites        []SiteProbe
	pollInterval time.Duration
}

func NewReadinessWaiter(mongoClient *mongo.Client, brokers []string, topic string, sites []SiteProbe) *ReadinessWaiter {
	return &ReadinessWaiter{
		mongoClient:  mongoClient,
		brokers:      brokers,
		topic:        topic,
		sites:        sites,
		pollInterval: 2 * time.Second,
	}
}

// WaitForDependencies blocks until MongoDB and Kafka answer. WordPress sites
// are only probed and logged: they are remote and may be down for a while.
func (w *ReadinessWaiter) WaitForDependencies(ctx context.Context) error {
	if err := w.waitForMongo(ctx); err != nil {
		return err
	}
	if err := w.waitForKafka(ctx); err != nil {
		return err
	}
	w.ProbeSites(ctx)
	return nil
}

func (w *ReadinessWaiter) waitForMongo(ctx context.Context) error {
	slog.Info("Waiting for MongoDB...")
	// No timeout: in dev the containers start in any order.
	return w.poll(ctx, "MongoDB", func(ctx context.Context) error {
		return w.mongoClient.Ping(ctx, readpref.Primary())
	})
}

func (w *ReadinessWaiter) waitForKafka(ctx context.Context) error {
	slog.Info("Waiting for Kafka...")
	return w.poll(ctx, "Kafka", w.checkKafka)
}

func (w *ReadinessWaiter) poll(ctx context.Context, name string, check func(context.Context) error) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := check(ctx); err != nil {
				slog.Warn(name+" not ready yet", "error", err)
				continue
			}
			slog.Info(name + " is ready")
			return nil
		}
	}
}

func (w *ReadinessWaiter) checkKafka(ctx context.Context) error {
	if len(w.brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	for _, broker := range w.brokers {
		conn, err := net.DialTimeout("tcp", broker, 2*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to broker %s: %w", broker, err)
		}
		_ = conn.Close()
	}

	conn, err := kafka.DialContext(ctx, "tcp", w.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	partitions, err := conn.ReadPartitions(w.topic)
	if err != nil {
		return fmt.Errorf("failed to read partitions for topic %s: %w", w.topic, err)
	}

	if len(partitions) == 0 {
		return fmt.Errorf("topic %s has no partitions", w.topic)
	}

	return nil
}

// ProbeSites sends one HEAD request per site and reports how many answered.
func (w *ReadinessWaiter) ProbeSites(ctx context.Context) int {
	reachable := 0
	for _, site := range w.sites {
		total, err := site.CountPosts(ctx, wordpress.Options{})
		if err != nil {
			slog.Warn("WordPress site not reachable", "site", site.BaseURL(), "error", err)
			continue
		}
		reachable++
		slog.Info("WordPress site reachable", "site", site.BaseURL(), "posts", total)
	}
	return reachable
}
