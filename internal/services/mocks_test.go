package services

import (
	"context"
	"sync"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type mockMetadataService struct {
	mu sync.Mutex

	apiVersion string
	maxVersion string
	maxErr     error
	maxCalls   int

	deployErr    error
	deployed     [][]byte
	deployOpts   []sfmeta.DeployOptions
	deployAPI    []string
	deployStatus []sfmeta.DeployStatus
	deployChecks int
	canceled     []string

	retrieveErr    error
	retrieveReqs   []sfmeta.RetrieveRequest
	retrieveStatus sfmeta.RetrieveStatus
	retrieveChecks int
}

func newMockService() *mockMetadataService {
	return &mockMetadataService{apiVersion: sfmeta.DefaultAPIVersion, maxVersion: "61.0"}
}

func (m *mockMetadataService) Deploy(_ context.Context, zipFile []byte, opts sfmeta.DeployOptions) (sfmeta.AsyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deployErr != nil {
		return sfmeta.AsyncResult{}, m.deployErr
	}
	m.deployed = append(m.deployed, zipFile)
	m.deployOpts = append(m.deployOpts, opts)
	m.deployAPI = append(m.deployAPI, m.apiVersion)
	return sfmeta.AsyncResult{ID: "0Af000000000001"}, nil
}

// CheckDeployStatus replays deployStatus in order, repeating the last entry.
func (m *mockMetadataService) CheckDeployStatus(_ context.Context, id string, _ bool) (sfmeta.DeployStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployChecks++
	if len(m.deployStatus) == 0 {
		return sfmeta.DeployStatus{ID: id, Status: sfmeta.StatusInProgress}, nil
	}
	s := m.deployStatus[0]
	if len(m.deployStatus) > 1 {
		m.deployStatus = m.deployStatus[1:]
	}
	s.ID = id
	return s, nil
}

func (m *mockMetadataService) CancelDeploy(_ context.Context, id string) (sfmeta.AsyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled = append(m.canceled, id)
	m.deployStatus = []sfmeta.DeployStatus{{Status: sfmeta.StatusCanceled, Done: true}}
	return sfmeta.AsyncResult{ID: id}, nil
}

func (m *mockMetadataService) Retrieve(_ context.Context, req sfmeta.RetrieveRequest) (sfmeta.AsyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.retrieveErr != nil {
		return sfmeta.AsyncResult{}, m.retrieveErr
	}
	m.retrieveReqs = append(m.retrieveReqs, req)
	return sfmeta.AsyncResult{ID: "09S000000000001"}, nil
}

func (m *mockMetadataService) CheckRetrieveStatus(_ context.Context, id string, _ bool) (sfmeta.RetrieveStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrieveChecks++
	s := m.retrieveStatus
	s.ID = id
	return s, nil
}

func (m *mockMetadataService) RetrieveMaxAPIVersion(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxCalls++
	return m.maxVersion, m.maxErr
}

func (m *mockMetadataService) APIVersion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiVersion
}

func (m *mockMetadataService) SetAPIVersion(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiVersion = v
}

type mockApprover struct {
	approved  bool
	err       error
	target    string
	deletions []string
	calls     int
}

func (m *mockApprover) RequestApproval(_ context.Context, target string, deletions []string) (bool, error) {
	m.calls++
	m.target = target
	m.deletions = deletions
	return m.approved, m.err
}
