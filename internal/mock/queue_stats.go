package mock

import "context"

// MockQueueStats implements broker depth reporting for tests.
type MockQueueStats struct {
	Depths  map[string]int
	Err     error
	Queried []string
}

func (m *MockQueueStats) PendingDepth(ctx context.Context, queueName string) (int, error) {
	m.Queried = append(m.Queried, queueName)
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Depths[queueName], nil
}
