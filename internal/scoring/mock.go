package scoring

import (
	"context"
	"sync"

	"uni-wizard/internal/domain"
)

// MockClient permite tests y demos sin llamar al servicio real.
type MockClient struct {
	mu sync.Mutex

	Clusters   map[string][]domain.ClusterOption
	ClusterErr error
	Response   RecommendResponse
	Err        error

	ClusterCalls   map[string]int
	RecommendCalls []RecommendRequest
}

func (m *MockClient) ListClusters(_ context.Context, countryCode string) ([]domain.ClusterOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClusterCalls == nil {
		m.ClusterCalls = make(map[string]int)
	}
	m.ClusterCalls[countryCode]++
	if m.ClusterErr != nil {
		return nil, m.ClusterErr
	}
	return append([]domain.ClusterOption{}, m.Clusters[countryCode]...), nil
}

func (m *MockClient) Recommend(_ context.Context, req RecommendRequest) (RecommendResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecommendCalls = append(m.RecommendCalls, req)
	if m.Err != nil {
		return RecommendResponse{}, m.Err
	}
	return m.Response, nil
}

// ClusterCallCount devuelve cuántas veces se pidió el catálogo de un país.
func (m *MockClient) ClusterCallCount(countryCode string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ClusterCalls[countryCode]
}

// Requests devuelve una copia de los pedidos de scoring recibidos.
func (m *MockClient) Requests() []RecommendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecommendRequest{}, m.RecommendCalls...)
}
