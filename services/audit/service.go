// Package audit keeps an asynchronous trail of role and permission changes.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services"
	"go.uber.org/zap"
)

// ResourceUser is the resource type of every privilege change
const ResourceUser = "user"

// Origin identifies who made a change. A nil ActorID means the operator CLI.
type Origin struct {
	ActorID   *uuid.UUID
	RequestID string
}

// ByActor builds an Origin for an authenticated request
func ByActor(actorID uuid.UUID, requestID string) Origin {
	return Origin{ActorID: &actorID, RequestID: requestID}
}

// Service writes audit entries from a pool of background workers
type Service struct {
	repo        repositories.AuditRepository
	logger      *zap.Logger
	events      chan *models.AuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int // pending entries held before new ones are dropped
	WorkerCount int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewService creates a new audit service; call Start before recording
func NewService(repo repositories.AuditRepository, logger *zap.Logger, cfg Config) *Service {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultConfig().WorkerCount
	}
	return &Service{
		repo:        repo,
		logger:      logger,
		events:      make(chan *models.AuditLog, cfg.BufferSize),
		workerCount: cfg.WorkerCount,
		bufferSize:  cfg.BufferSize,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))
	return nil
}

// Stop stops accepting entries and waits for pending ones to be written
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	pending := len(s.events)
	close(s.events)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Record queues an entry without blocking. A full buffer drops the entry.
func (s *Service) Record(entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.events <- entry:
		return nil
	default:
		s.logger.Warn("audit buffer full, dropping entry",
			zap.String("action", string(entry.Action)),
			zap.String("resource_id", entry.ResourceID.String()))
		return fmt.Errorf("audit event buffer full")
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	for entry := range s.events {
		if err := s.write(entry); err != nil {
			s.logger.Error("failed to write audit entry",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(entry.Action)))
		}
	}
}

func (s *Service) write(entry *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Running       bool
}

// GetStats returns statistics about the audit service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.events),
		WorkerCount:   s.workerCount,
		Running:       s.started && !s.stopped,
	}
}

// List returns the trail newest first, and the total count
func (s *Service) List(ctx context.Context, opts repositories.ListOptions) ([]*models.AuditLog, int, error) {
	list, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list audit logs", err)
	}
	return list, total, nil
}

func (s *Service) entry(origin Origin, action models.AuditAction, userID uuid.UUID, details interface{}) *models.AuditLog {
	entry := models.NewAuditLog(action, ResourceUser, userID).
		WithDetails(details).
		WithRequest(origin.RequestID)
	if origin.ActorID != nil {
		entry.WithActor(*origin.ActorID)
	}
	return entry
}

// LogRoleAssigned records a role change
func (s *Service) LogRoleAssigned(origin Origin, user *models.User) error {
	return s.Record(s.entry(origin, models.AuditActionRoleAssigned, user.ID, map[string]string{
		"username": user.Username,
		"role":     user.Role,
	}))
}

// LogPermissionGranted records a permission grant
func (s *Service) LogPermissionGranted(origin Origin, user *models.User, permission string) error {
	return s.Record(s.entry(origin, models.AuditActionPermissionGranted, user.ID, map[string]string{
		"username":   user.Username,
		"permission": permission,
	}))
}

// LogPermissionRevoked records a permission revocation
func (s *Service) LogPermissionRevoked(origin Origin, user *models.User, permission string) error {
	return s.Record(s.entry(origin, models.AuditActionPermissionRevoked, user.ID, map[string]string{
		"username":   user.Username,
		"permission": permission,
	}))
}
