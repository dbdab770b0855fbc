package courier

import (
	"context"
	"fmt"
	"sync"
)

// ConsumerCoordinator is responsible for managing and coordinating multiple named consumers
type ConsumerCoordinator struct {
	ce    []ConsumerEnvelope
	mu    sync.Mutex
	isset map[string]struct{}
	l     Logger
}

// NewConsumerCoordinator initializes ConsumerCoordinator
func NewConsumerCoordinator() *ConsumerCoordinator {
	return &ConsumerCoordinator{
		ce:    make([]ConsumerEnvelope, 0),
		isset: make(map[string]struct{}),
	}
}

// StartAll attempts to start all the consumers registered with the coordinator.
// It stops at, and returns, the first failure; consumers started so far keep running.
func (s *ConsumerCoordinator) StartAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := ctx.Done()
	for _, ce := range s.ce {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		if s.l != nil {
			s.l.Info(fmt.Sprintf("starting consumer %s", ce.Name))
		}
		if err := ce.Consumer.Start(ctx); err != nil {
			err = fmt.Errorf("failed to start consumer '%s': %w", ce.Name, err)
			if s.l != nil {
				s.l.Error(err.Error())
			}
			return err
		}
	}
	return nil
}

// StopAll attempts to stop all consumers managed by the coordinator
func (s *ConsumerCoordinator) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ce := range s.ce {
		if err := ce.Consumer.Stop(); err != nil {
			if s.l != nil {
				s.l.Error(fmt.Sprintf("failed to stop consumer '%s': %s", ce.Name, err))
			}
			continue
		}
		if s.l != nil {
			s.l.Info(fmt.Sprintf("stopped consumer %s", ce.Name))
		}
	}
}

// AddConsumer adds a new consumer with a unique Name
func (s *ConsumerCoordinator) AddConsumer(name string, c *Consumer) error {
	return s.AddConsumerE(ConsumerEnvelope{name, c})
}

func (s *ConsumerCoordinator) AddConsumerE(ce ConsumerEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.isset[ce.Name]; ok {
		return fmt.Errorf("consumer with Name %q is already added", ce.Name)
	}
	s.ce = append(s.ce, ce)
	s.isset[ce.Name] = struct{}{}

	return nil
}

func (s *ConsumerCoordinator) SetLogger(l Logger) {
	s.l = l
}

// ConsumerEnvelope is a container for a named consumer
type ConsumerEnvelope struct {
	Name     string
	Consumer *Consumer
}
