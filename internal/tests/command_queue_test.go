package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"metro/internal/domain"
	"metro/internal/repository"
	"metro/internal/service"
)

// ──────────────────────────────────────────────
// COMMAND QUEUE: FIFO, SINGLE DELIVERY
// ──────────────────────────────────────────────

func TestCommandQueue_FIFOPerDevice(t *testing.T) {
	t.Parallel()

	commandRepo := NewMockCommandRepository()
	commandService := service.NewCommandService(commandRepo)
	ctx := context.Background()

	base := time.Now()
	kinds := []domain.CommandKind{
		domain.CommandKindEnroll,
		domain.CommandKindSource,
		domain.CommandKindDestination,
	}

	// Enqueue with distinct timestamps so order is unambiguous.
	for i, kind := range kinds {
		_ = commandRepo.Create(ctx, &domain.DeviceCommand{
			ID:        string(kind) + "-cmd",
			DeviceID:  "gate-1",
			Command:   kind,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	for _, want := range kinds {
		cmd, err := commandService.DequeueNext(ctx, "gate-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.Command != want {
			t.Errorf("expected command %s, got %s", want, cmd.Command)
		}
		if !cmd.Processed {
			t.Error("dequeued command should be marked processed")
		}
	}

	// Queue drained.
	_, err := commandService.DequeueNext(ctx, "gate-1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound on empty queue, got %v", err)
	}
}

func TestCommandQueue_CommandsScopedToDevice(t *testing.T) {
	t.Parallel()

	commandRepo := NewMockCommandRepository()
	commandService := service.NewCommandService(commandRepo)
	ctx := context.Background()

	if _, err := commandService.Enqueue(ctx, "gate-1", domain.CommandKindSource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// gate-2 has no work even though gate-1 does.
	_, err := commandService.DequeueNext(ctx, "gate-2")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other device, got %v", err)
	}

	cmd, err := commandService.DequeueNext(ctx, "gate-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.DeviceID != "gate-1" {
		t.Errorf("expected device gate-1, got %s", cmd.DeviceID)
	}
}

func TestCommandQueue_SingleDeliveryUnderConcurrentPolling(t *testing.T) {
	t.Parallel()

	commandRepo := NewMockCommandRepository()
	commandService := service.NewCommandService(commandRepo)
	ctx := context.Background()

	const commands = 20
	base := time.Now()
	for i := 0; i < commands; i++ {
		_ = commandRepo.Create(ctx, &domain.DeviceCommand{
			ID:        fmt.Sprintf("cmd-%d", i),
			DeviceID:  "gate-1",
			Command:   domain.CommandKindSource,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
	}

	// Many concurrent pollers for the same device.
	var wg sync.WaitGroup
	var mu sync.Mutex
	delivered := make(map[string]int)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				cmd, err := commandService.DequeueNext(ctx, "gate-1")
				if errors.Is(err, repository.ErrNotFound) {
					return
				}
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				delivered[cmd.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(delivered) != commands {
		t.Errorf("expected %d distinct commands delivered, got %d", commands, len(delivered))
	}
	for id, count := range delivered {
		if count != 1 {
			t.Errorf("command %s delivered %d times", id, count)
		}
	}
}

func TestCommandQueue_EnqueueValidation(t *testing.T) {
	t.Parallel()

	commandService := service.NewCommandService(NewMockCommandRepository())
	ctx := context.Background()

	if _, err := commandService.Enqueue(ctx, "", domain.CommandKindSource); !errors.Is(err, service.ErrInvalidDeviceID) {
		t.Errorf("expected ErrInvalidDeviceID, got %v", err)
	}

	if _, err := commandService.Enqueue(ctx, "gate-1", ""); !errors.Is(err, service.ErrInvalidCommandKind) {
		t.Errorf("expected ErrInvalidCommandKind, got %v", err)
	}

	if _, err := commandService.DequeueNext(ctx, ""); !errors.Is(err, service.ErrInvalidDeviceID) {
		t.Errorf("expected ErrInvalidDeviceID, got %v", err)
	}
}
