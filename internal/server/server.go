package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"transcript-formatter/internal/cache"
	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/pkg/config"
)

const (
	// taskTTL: сколько хранится запись о задаче
	taskTTL = 24 * time.Hour

	defaultPageSize = 50
	maxPageSize     = 500
	previewLength   = 200
)

// TranscriptProcessor определяет интерфейс для варианта использования, который форматирует транскрипты.
type TranscriptProcessor interface {
	FormatTranscript(ctx context.Context, filePath string) (*domain.FormatResult, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	cacheStore *cache.CacheStore
	processor  TranscriptProcessor
	stop       context.CancelFunc
}

// Pagination описывает страницу блоков сообщений в ответе
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// TaskStatusResponse: ответ на запрос статуса задачи
type TaskStatusResponse struct {
	TaskID       string     `json:"task_id"`
	Status       TaskStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	WarningCount int        `json:"warning_count"`
}

// TaskResultResponse: страница результата форматирования
type TaskResultResponse struct {
	Ticket          map[string]any     `json:"ticket"`
	Entities        domain.Entities    `json:"entities"`
	Warnings        []domain.Warning   `json:"warnings"`
	Pagination      Pagination         `json:"pagination"`
	GroupedMessages [][]*domain.Message `json:"grouppedMessages"`
}

// New создает новый экземпляр Server и запускает фоновую очистку хранилищ
func New(cfg *config.Config, processor TranscriptProcessor, taskStore *TaskStore, cacheStore *cache.CacheStore) (*Server, error) {
	if processor == nil || taskStore == nil || cacheStore == nil {
		return nil, errors.New("processor, taskStore и cacheStore обязательны")
	}

	s := &Server{
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		processor:  processor,
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	chiRouter.Get("/health", s.handleHealth)

	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/format", s.handleFormat)
		r.Post("/format-by-hash", s.handleFormatByHash)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupInterval := cfg.Processing.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = config.DefaultCleanupInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.taskStore.StartCleanupTicker(ctx, cleanupInterval)
	s.cacheStore.StartCleanupTicker(ctx, cleanupInterval)

	return s, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFormat принимает файл транскрипта и запускает задачу форматирования
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.MaxUploadSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	taskID := uuid.NewString()

	tempFilePath, err := saveUpload(file, taskID)
	if err != nil {
		slog.Error("Не удалось сохранить загруженный файл", "error", err, "task_id", taskID)
		http.Error(w, "Не удалось сохранить загруженный файл", http.StatusInternalServerError)
		return
	}

	s.taskStore.CreateTask(taskID, taskTTL)
	go s.runTask(taskID, tempFilePath)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// saveUpload сохраняет загруженный файл во временную директорию и логирует его начало
func saveUpload(file io.Reader, taskID string) (string, error) {
	out, err := os.CreateTemp("", fmt.Sprintf("transcript_%s_*.json", taskID))
	if err != nil {
		return "", fmt.Errorf("не удалось создать временный файл: %w", err)
	}
	defer out.Close()

	preview := make([]byte, previewLength)
	n, _ := io.ReadFull(file, preview)
	preview = preview[:n]

	if _, err := out.Write(preview); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("не удалось записать временный файл: %w", err)
	}
	written, err := io.Copy(out, file)
	if err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("не удалось записать временный файл: %w", err)
	}

	slog.Debug("Загруженный файл получен сервером",
		"task_id", taskID,
		"file_path", out.Name(),
		"content_length", int64(n)+written,
		"content_preview", string(preview),
	)
	return out.Name(), nil
}

// runTask выполняет форматирование в фоне и сохраняет итог в хранилище задач
func (s *Server) runTask(taskID, filePath string) {
	defer os.Remove(filePath)

	_ = s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

	taskCtx := context.Background()
	if timeout := s.cfg.Processing.TaskTimeout; timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, timeout)
		defer cancel()
	}

	result, err := s.processor.FormatTranscript(taskCtx, filePath)
	if err != nil {
		slog.Warn("Задача завершилась с ошибкой", "task_id", taskID, "error", err)
		_ = s.taskStore.UpdateTaskError(taskID, err.Error())
		return
	}

	_ = s.taskStore.UpdateTaskResult(taskID, result)
}

// handleFormatByHash создает задачу из ранее кешированного результата
func (s *Server) handleFormatByHash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return
	}
	if req.Hash == "" {
		http.Error(w, "Требуется хеш", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, taskTTL)

	if cachedItem, found := s.cacheStore.Get(req.Hash); found {
		slog.Info("Попадание в кеш для хеша", "hash", req.Hash, "task_id", taskID)
		_ = s.taskStore.UpdateTaskResult(taskID, cachedItem.Result)
	} else {
		slog.Info("Промах кеша для хеша", "hash", req.Hash, "task_id", taskID)
		_ = s.taskStore.UpdateTaskError(taskID, "Файл не найден в кеше для данного хеша")
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	resp := TaskStatusResponse{
		TaskID:       task.ID,
		Status:       task.Status,
		ErrorMessage: task.ErrorMessage,
	}
	if task.Result != nil {
		resp.WarningCount = len(task.Result.Warnings)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTaskResult возвращает страницу блоков сообщений завершенной задачи
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}
	if task.Status != TaskStatusCompleted || task.Result == nil || task.Result.Document == nil {
		http.Error(w, "Задача не завершена", http.StatusBadRequest)
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		http.Error(w, "Недопустимый параметр page", http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		http.Error(w, fmt.Sprintf("Недопустимый параметр page_size (1-%d)", maxPageSize), http.StatusBadRequest)
		return
	}

	doc := task.Result.Document
	groups := doc.GroupedMessages
	total := len(groups)

	start := total
	if page-1 <= total/pageSize {
		start = min((page-1)*pageSize, total)
	}
	end := min(start+pageSize, total)

	writeJSON(w, http.StatusOK, TaskResultResponse{
		Ticket:   doc.Ticket,
		Entities: doc.Entities,
		Warnings: task.Result.Warnings,
		Pagination: Pagination{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  total,
			TotalPages:  (total + pageSize - 1) / pageSize,
		},
		GroupedMessages: groups[start:end],
	})
}

// queryInt разбирает целочисленный параметр запроса
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Не удалось записать ответ", "error", err)
	}
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера и фоновой очистки
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	s.stop()
	return s.HTTPServer.Shutdown(ctx)
}
