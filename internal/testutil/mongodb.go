//go:build integration

// Package testutil starts the containers the integration tests run against.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

const mongoImage = "mongo:7.0"

// MongoDBContainer is a running MongoDB container.
type MongoDBContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
}

// SetupMongoDB starts a MongoDB container owned by the caller.
func SetupMongoDB(ctx context.Context) (*MongoDBContainer, error) {
	container, err := mongodb.Run(ctx, mongoImage)
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", mongoImage, err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("reading MongoDB connection string: %w", err)
	}
	return &MongoDBContainer{Container: container, URI: uri}, nil
}

// Cleanup removes the container.
func (m *MongoDBContainer) Cleanup(_ context.Context) error {
	if m == nil || m.Container == nil {
		return nil
	}
	return testcontainers.TerminateContainer(m.Container)
}

var shared struct {
	mu    sync.Mutex
	mongo *MongoDBContainer
}

// RunWithMongoDB starts one MongoDB container for the package, runs its tests
// and removes the container. Call it from TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(testutil.RunWithMongoDB(m))
//	}
func RunWithMongoDB(m *testing.M) int {
	ctx := context.Background()

	container, err := SetupMongoDB(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration tests need Docker: %v\n", err)
		return 1
	}
	shared.mu.Lock()
	shared.mongo = container
	shared.mu.Unlock()

	code := m.Run()

	if err := container.Cleanup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "removing MongoDB container: %v\n", err)
	}
	return code
}

// MongoURI returns the URI of the package's shared container.
func MongoURI(t testing.TB) string {
	t.Helper()
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.mongo == nil {
		t.Fatal("no shared MongoDB container: call RunWithMongoDB from TestMain")
	}
	return shared.mongo.URI
}

var dbNameReplacer = strings.NewReplacer("/", "_", `\`, "_", ".", "_", " ", "_", `"`, "_", "$", "_")

// DatabaseName returns a database name unique to t. MongoDB rejects names
// with path separators, dots or spaces and caps them at 63 bytes.
func DatabaseName(t testing.TB) string {
	name := dbNameReplacer.Replace(t.Name())
	if len(name) > 50 {
		name = name[:50]
	}
	return name + "_" + uuid.NewString()[:8]
}
