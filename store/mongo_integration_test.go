package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/codeninja55/vitalgate/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// startMongo brings up a disposable Mongo instance the way the teacher's
// DIMSE integration tests brought up a disposable Orthanc PACS: a real
// dependency in a container, not a mock, so MongoStore's queries run
// against the wire protocol they'll see in production.
func startMongo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed integration test in -short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	return "mongodb://" + host + ":" + port.Port()
}

func TestMongoStore_FindWatchByIMEI_RoundTrip(t *testing.T) {
	uri := startMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database("vitalgate_test")
	_, err = db.Collection("watches").InsertOne(ctx, bson.M{"imei": "8612345", "patient_id": "patient-1"})
	require.NoError(t, err)

	s := store.NewMongoStore(db)
	w, err := s.FindWatchByIMEI(ctx, "8612345")
	require.NoError(t, err)
	require.NotNil(t, w)
	require.Equal(t, "patient-1", w.PatientID)

	miss, err := s.FindWatchByIMEI(ctx, "no-such-imei")
	require.NoError(t, err)
	require.Nil(t, miss)
}

func TestMongoStore_AppendHistory_RoundTrip(t *testing.T) {
	uri := startMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database("vitalgate_test")
	s := store.NewMongoStore(db)

	err = s.AppendHistory(ctx, "bp_history", store.HistoryDocument{
		PatientID:     "patient-1",
		SubDeviceKind: "bp",
		SourceVendor:  "kati",
		DeviceID:      "kati_8612345",
		EffectiveTime: time.Now(),
		Values:        map[string]any{"systolic": 120, "diastolic": 80},
	})
	require.NoError(t, err)

	count, err := db.Collection("bp_history").CountDocuments(ctx, bson.M{"patient_id": "patient-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
