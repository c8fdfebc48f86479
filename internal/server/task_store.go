package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"transcript-formatter/internal/domain"
)

// ErrTaskNotFound возвращается для неизвестного или удаленного идентификатора задачи
var ErrTaskNotFound = errors.New("task not found")

// TaskStatus представляет статус задачи форматирования
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task представляет собой одну задачу форматирования
type Task struct {
	ID           string
	Status       TaskStatus
	Result       *domain.FormatResult
	ErrorMessage string
	CreatedAt    time.Time
	ExpiresAt    time.Time // Для автоматической очистки
}

// TaskStore управляет хранением и извлечением задач
type TaskStore struct {
	tasks map[string]*Task
	mutex sync.RWMutex
}

// NewTaskStore создает новый экземпляр TaskStore
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*Task),
	}
}

// CreateTask создает новую задачу со статусом 'pending'
func (ts *TaskStore) CreateTask(taskID string, ttl time.Duration) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	now := time.Now()
	ts.tasks[taskID] = &Task{
		ID:        taskID,
		Status:    TaskStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// update применяет изменение к задаче под блокировкой
func (ts *TaskStore) update(taskID string, apply func(*Task)) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	task, exists := ts.tasks[taskID]
	if !exists {
		return fmt.Errorf("задача с ID %s: %w", taskID, ErrTaskNotFound)
	}

	apply(task)
	return nil
}

// UpdateTaskStatus обновляет статус задачи
func (ts *TaskStore) UpdateTaskStatus(taskID string, status TaskStatus) error {
	return ts.update(taskID, func(task *Task) {
		task.Status = status
	})
}

// UpdateTaskResult сохраняет результат и переводит задачу в статус 'completed'
func (ts *TaskStore) UpdateTaskResult(taskID string, result *domain.FormatResult) error {
	return ts.update(taskID, func(task *Task) {
		task.Status = TaskStatusCompleted
		task.Result = result
	})
}

// UpdateTaskError сохраняет сообщение об ошибке и переводит задачу в статус 'failed'
func (ts *TaskStore) UpdateTaskError(taskID string, errorMessage string) error {
	return ts.update(taskID, func(task *Task) {
		task.Status = TaskStatusFailed
		task.ErrorMessage = errorMessage
	})
}

// GetTask возвращает снимок задачи по ее ID
func (ts *TaskStore) GetTask(taskID string) (*Task, error) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()

	task, exists := ts.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("задача с ID %s: %w", taskID, ErrTaskNotFound)
	}

	snapshot := *task
	return &snapshot, nil
}

// CleanupExpired удаляет просроченные задачи из хранилища
func (ts *TaskStore) CleanupExpired() {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	now := time.Now()
	for taskID, task := range ts.tasks {
		if now.After(task.ExpiresAt) {
			delete(ts.tasks, taskID)
		}
	}
}

// StartCleanupTicker запускает тикер для периодической очистки просроченных задач
func (ts *TaskStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts.CleanupExpired()
			}
		}
	}()
}
