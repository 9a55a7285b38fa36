package store

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store double for unit and supervisor tests.
// Its multi-index, RWMutex-guarded design is grounded on
// dicom.DataSetCollection's approach to keeping several lookup indexes
// (by SOPInstanceUID, PatientID, StudyInstanceUID, ...) consistent under
// concurrent reads: here the indexes are by gateway MAC, watch/hospital
// IMEI, patient id, and BLE sub-device MAC instead of DICOM UIDs.
type MemStore struct {
	mu sync.RWMutex

	gateways     map[string]*GatewayBox         // MAC -> box
	watches      map[string]*Watch              // IMEI -> watch
	hospitals    map[string]*HospitalBox         // IMEI -> box
	registries   map[string]*SubDeviceRegistry   // patientID -> registry
	subMACIndex  map[string]*RegistryEntry       // subMAC -> reverse-index entry

	history map[string][]HistoryDocument // series -> appended docs, in append order
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		gateways:    make(map[string]*GatewayBox),
		watches:     make(map[string]*Watch),
		hospitals:   make(map[string]*HospitalBox),
		registries:  make(map[string]*SubDeviceRegistry),
		subMACIndex: make(map[string]*RegistryEntry),
		history:     make(map[string][]HistoryDocument),
	}
}

// SeedGateway registers an AVA4 gateway for lookup.
func (m *MemStore) SeedGateway(box GatewayBox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := box
	m.gateways[box.MAC] = &b
}

// SeedWatch registers a Kati watch for lookup.
func (m *MemStore) SeedWatch(w Watch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ww := w
	m.watches[w.IMEI] = &ww
}

// SeedHospitalBox registers a Qube-Vital hospital box for lookup.
func (m *MemStore) SeedHospitalBox(h HospitalBox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh := h
	m.hospitals[h.IMEI] = &hh
}

// SeedRegistry registers a patient's sub-device registry and rebuilds the
// reverse sub-MAC index, mirroring DataSetCollection.Add's
// index-maintenance-on-write discipline.
func (m *MemStore) SeedRegistry(reg SubDeviceRegistry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := reg
	m.registries[reg.PatientID] = &r
	for kind, mac := range reg.MACByKind {
		m.subMACIndex[mac] = &RegistryEntry{PatientID: reg.PatientID, DeclaredKind: kind}
	}
}

func (m *MemStore) FindGatewayByMAC(_ context.Context, mac string) (*GatewayBox, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gateways[mac], nil
}

func (m *MemStore) FindWatchByIMEI(_ context.Context, imei string) (*Watch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.watches[imei], nil
}

func (m *MemStore) FindHospitalBoxByIMEI(_ context.Context, imei string) (*HospitalBox, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hospitals[imei], nil
}

func (m *MemStore) FindSubDeviceRegistry(_ context.Context, patientID string) (*SubDeviceRegistry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registries[patientID], nil
}

func (m *MemStore) FindRegistryBySubMAC(_ context.Context, mac string) (*RegistryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subMACIndex[mac], nil
}

func (m *MemStore) AppendHistory(_ context.Context, series string, doc HistoryDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[series] = append(m.history[series], doc)
	return nil
}

// History returns a copy of the documents appended to series, in append
// order, for test assertions.
func (m *MemStore) History(series string) []HistoryDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]HistoryDocument, len(m.history[series]))
	copy(out, m.history[series])
	return out
}

var _ Store = (*MemStore)(nil)
