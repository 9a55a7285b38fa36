package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names are identifiers, not paths, per spec.md §6.4.
const (
	collPatients      = "patients"
	collGatewayBoxes  = "amy_boxes"
	collSubDevices    = "amy_devices"
	collWatches       = "watches"
	collHospitalBoxes = "mfc_hv01_boxes"
)

// seriesCollection maps a history series name (as already resolved by the
// history package) directly onto its Mongo collection name — in this
// store they are the same string, since spec.md §4.6 already names the
// series after their Mongo collections in the original system.
func seriesCollection(series string) string { return series }

// MongoStore is the production C1 implementation backed by
// go.mongodb.org/mongo-driver, wrapped in a circuit breaker so a downed
// document store fails fast instead of piling up blocked workers
// (spec.md §5 "shared resources... store client pools").
type MongoStore struct {
	db *mongo.Database
	cb *gobreaker.CircuitBreaker
}

// NewMongoStore wraps an already-connected *mongo.Database. Connection
// lifecycle (Connect/Disconnect, pool sizing per spec.md §5 "at least N+4
// connections") is the caller's responsibility — this type only issues
// queries.
func NewMongoStore(db *mongo.Database) *MongoStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store.mongo",
		MaxRequests: 4,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &MongoStore{db: db, cb: cb}
}

func (s *MongoStore) exec(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return s.cb.Execute(func() (any, error) { return fn(ctx) })
}

func (s *MongoStore) FindGatewayByMAC(ctx context.Context, mac string) (*GatewayBox, error) {
	res, err := s.exec(ctx, func(ctx context.Context) (any, error) {
		var doc struct {
			MAC       string `bson:"mac"`
			PatientID string `bson:"patient_id"`
		}
		err := s.db.Collection(collGatewayBoxes).FindOne(ctx, bson.M{"mac": mac}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &GatewayBox{MAC: doc.MAC, PatientID: doc.PatientID}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: find gateway by mac %q: %w", mac, err)
	}
	if res == nil {
		return nil, nil
	}
	return res.(*GatewayBox), nil
}

func (s *MongoStore) FindWatchByIMEI(ctx context.Context, imei string) (*Watch, error) {
	res, err := s.exec(ctx, func(ctx context.Context) (any, error) {
		var doc struct {
			IMEI      string `bson:"imei"`
			PatientID string `bson:"patient_id"`
		}
		err := s.db.Collection(collWatches).FindOne(ctx, bson.M{"imei": imei}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &Watch{IMEI: doc.IMEI, PatientID: doc.PatientID}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: find watch by imei %q: %w", imei, err)
	}
	if res == nil {
		return nil, nil
	}
	return res.(*Watch), nil
}

func (s *MongoStore) FindHospitalBoxByIMEI(ctx context.Context, imei string) (*HospitalBox, error) {
	res, err := s.exec(ctx, func(ctx context.Context) (any, error) {
		var doc struct {
			IMEI       string `bson:"imei"`
			HospitalID string `bson:"hospital_id"`
		}
		err := s.db.Collection(collHospitalBoxes).FindOne(ctx, bson.M{"imei": imei}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &HospitalBox{IMEI: doc.IMEI, HospitalID: doc.HospitalID}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: find hospital box by imei %q: %w", imei, err)
	}
	if res == nil {
		return nil, nil
	}
	return res.(*HospitalBox), nil
}

func (s *MongoStore) FindSubDeviceRegistry(ctx context.Context, patientID string) (*SubDeviceRegistry, error) {
	res, err := s.exec(ctx, func(ctx context.Context) (any, error) {
		var doc struct {
			PatientID string            `bson:"patient_id"`
			MACByKind map[string]string `bson:"mac_by_kind"`
		}
		err := s.db.Collection(collSubDevices).FindOne(ctx, bson.M{"patient_id": patientID}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &SubDeviceRegistry{PatientID: doc.PatientID, MACByKind: doc.MACByKind}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: find sub-device registry for patient %q: %w", patientID, err)
	}
	if res == nil {
		return nil, nil
	}
	return res.(*SubDeviceRegistry), nil
}

// FindRegistryBySubMAC is the reverse index required by spec.md §4.1;
// realized as a scan+filter per the spec's allowance when the store lacks
// a dedicated index. Production deployments should add a unique index on
// the embedded "mac_by_kind" values.
func (s *MongoStore) FindRegistryBySubMAC(ctx context.Context, mac string) (*RegistryEntry, error) {
	res, err := s.exec(ctx, func(ctx context.Context) (any, error) {
		cur, err := s.db.Collection(collSubDevices).Find(ctx, bson.M{})
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var doc struct {
				PatientID string            `bson:"patient_id"`
				MACByKind map[string]string `bson:"mac_by_kind"`
			}
			if err := cur.Decode(&doc); err != nil {
				return nil, err
			}
			for kind, m := range doc.MACByKind {
				if m == mac {
					return &RegistryEntry{PatientID: doc.PatientID, DeclaredKind: kind}, nil
				}
			}
		}
		return nil, cur.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("store: find registry by sub mac %q: %w", mac, err)
	}
	if res == nil {
		return nil, nil
	}
	return res.(*RegistryEntry), nil
}

func (s *MongoStore) AppendHistory(ctx context.Context, series string, doc HistoryDocument) error {
	_, err := s.exec(ctx, func(ctx context.Context) (any, error) {
		_, err := s.db.Collection(seriesCollection(series)).InsertOne(ctx, doc)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("store: append history to %q: %w", series, err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
