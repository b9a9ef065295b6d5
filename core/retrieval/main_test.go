package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/index"
	loadSql "github.com/siherrmann/memgraph/sql"
	"github.com/siherrmann/memgraph/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

const testDimension = 16

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

// testEmbedder hashes tokens into a fixed-size unit vector, so equal
// texts embed identically and overlapping texts land close together.
func testEmbedder(text string) ([]float32, error) {
	vector := make([]float32, testDimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%testDimension]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for n := range vector {
			vector[n] *= scale
		}
	}
	return vector, nil
}

var collectionCounter int

func initEngine(t *testing.T) (*Engine, *store.Store) {
	db := initDB(t)

	idx, err := index.NewPostgresIndex(db, true)
	require.NoError(t, err)

	collectionCounter++
	graphStore, err := store.NewStore(context.Background(), idx, testEmbedder, store.Config{
		Collection: fmt.Sprintf("retrieval_test_%d", collectionCounter),
		Dimension:  testDimension,
	}, nil)
	require.NoError(t, err)

	return NewEngine(graphStore, nil), graphStore
}
