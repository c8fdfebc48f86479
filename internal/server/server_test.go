package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"transcript-formatter/internal/cache"
	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/pkg/config"
)

// Mock implementation for TranscriptProcessor
type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) FormatTranscript(ctx context.Context, filePath string) (*domain.FormatResult, error) {
	args := m.Called(ctx, filePath)
	if res := args.Get(0); res != nil {
		return res.(*domain.FormatResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{Host: "localhost", Port: 8080},
		Processing: config.Processing{
			TaskTimeout:     time.Second,
			CacheTTL:        time.Minute,
			CleanupInterval: time.Hour,
			MaxUploadSizeMB: 1,
		},
	}
}

func newTestServer(t *testing.T, proc TranscriptProcessor) *Server {
	t.Helper()
	srv, err := New(testConfig(), proc, NewTaskStore(), cache.NewCacheStore())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.HTTPServer.Handler.ServeHTTP(rr, req)
	return rr
}

func uploadRequest(t *testing.T, field, content string) *http.Request {
	t.Helper()
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	fw, err := writer.CreateFormFile(field, "transcript.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/format", &b)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeTaskID(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp["task_id"])
	return resp["task_id"]
}

// resultWithGroups создает результат с count блоками по одному сообщению
func resultWithGroups(count int) *domain.FormatResult {
	doc := &domain.Document{Ticket: map[string]any{"name": "ticket-1"}}
	for i := 0; i < count; i++ {
		msg := &domain.Message{ID: fmt.Sprint(i), Author: fmt.Sprint(i), Content: "x"}
		doc.Messages = append(doc.Messages, msg)
		doc.GroupedMessages = append(doc.GroupedMessages, []*domain.Message{msg})
	}
	return &domain.FormatResult{
		Document: doc,
		Warnings: []domain.Warning{{Path: "messages[0].type", Reason: "must be an integer in [0, 15]"}},
	}
}

func TestNew(t *testing.T) {
	_, err := New(testConfig(), nil, NewTaskStore(), cache.NewCacheStore())
	assert.Error(t, err)

	srv := newTestServer(t, new(mockProcessor))
	assert.Equal(t, "localhost:8080", srv.HTTPServer.Addr)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, new(mockProcessor))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_Format(t *testing.T) {
	t.Run("успешная задача", func(t *testing.T) {
		proc := new(mockProcessor)
		srv := newTestServer(t, proc)
		result := resultWithGroups(3)

		proc.On("FormatTranscript", mock.Anything, mock.AnythingOfType("string")).Return(result, nil).Once()

		rr := serve(srv, uploadRequest(t, "file", `{"messages": []}`))
		require.Equal(t, http.StatusAccepted, rr.Code)
		taskID := decodeTaskID(t, rr)

		assert.Eventually(t, func() bool {
			task, err := srv.taskStore.GetTask(taskID)
			return err == nil && task.Status == TaskStatusCompleted
		}, time.Second, 10*time.Millisecond)

		task, err := srv.taskStore.GetTask(taskID)
		require.NoError(t, err)
		assert.Same(t, result, task.Result)
		proc.AssertExpectations(t)
	})

	t.Run("ошибка форматирования", func(t *testing.T) {
		proc := new(mockProcessor)
		srv := newTestServer(t, proc)

		proc.On("FormatTranscript", mock.Anything, mock.AnythingOfType("string")).
			Return(nil, errors.New("document structure is invalid")).Once()

		rr := serve(srv, uploadRequest(t, "file", `{}`))
		require.Equal(t, http.StatusAccepted, rr.Code)
		taskID := decodeTaskID(t, rr)

		assert.Eventually(t, func() bool {
			task, err := srv.taskStore.GetTask(taskID)
			return err == nil && task.Status == TaskStatusFailed
		}, time.Second, 10*time.Millisecond)

		rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID, nil))
		var resp TaskStatusResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "document structure is invalid", resp.ErrorMessage)
	})

	t.Run("нет файла в форме", func(t *testing.T) {
		srv := newTestServer(t, new(mockProcessor))
		rr := serve(srv, uploadRequest(t, "other", `{}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("не multipart", func(t *testing.T) {
		srv := newTestServer(t, new(mockProcessor))
		rr := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/format", strings.NewReader("{}")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("файл больше лимита", func(t *testing.T) {
		srv := newTestServer(t, new(mockProcessor))
		rr := serve(srv, uploadRequest(t, "file", strings.Repeat("x", 2<<20)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestServer_FormatByHash(t *testing.T) {
	srv := newTestServer(t, new(mockProcessor))
	cached := resultWithGroups(1)
	srv.cacheStore.Put("known", cached, time.Minute)

	post := func(body string) *httptest.ResponseRecorder {
		return serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/format-by-hash", strings.NewReader(body)))
	}

	t.Run("попадание в кеш", func(t *testing.T) {
		rr := post(`{"hash": "known"}`)
		require.Equal(t, http.StatusAccepted, rr.Code)

		task, err := srv.taskStore.GetTask(decodeTaskID(t, rr))
		require.NoError(t, err)
		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Same(t, cached, task.Result)
	})

	t.Run("промах кеша", func(t *testing.T) {
		rr := post(`{"hash": "unknown"}`)
		require.Equal(t, http.StatusAccepted, rr.Code)

		task, err := srv.taskStore.GetTask(decodeTaskID(t, rr))
		require.NoError(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.NotEmpty(t, task.ErrorMessage)
	})

	t.Run("некорректный запрос", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
		assert.Equal(t, http.StatusBadRequest, post(`{"hash": ""}`).Code)
	})
}

func TestServer_TaskStatus(t *testing.T) {
	srv := newTestServer(t, new(mockProcessor))

	t.Run("ожидающая задача", func(t *testing.T) {
		srv.taskStore.CreateTask("test-task-1", time.Minute)

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/test-task-1", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "test-task-1", resp["task_id"])
		assert.Equal(t, string(TaskStatusPending), resp["status"])
		assert.EqualValues(t, 0, resp["warning_count"])
	})

	t.Run("завершенная задача с предупреждениями", func(t *testing.T) {
		srv.taskStore.CreateTask("test-task-2", time.Minute)
		require.NoError(t, srv.taskStore.UpdateTaskResult("test-task-2", resultWithGroups(2)))

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/test-task-2", nil))

		var resp TaskStatusResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, TaskStatusCompleted, resp.Status)
		assert.Equal(t, 1, resp.WarningCount)
	})

	t.Run("задача не найдена", func(t *testing.T) {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/non-existent", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestServer_TaskResult(t *testing.T) {
	srv := newTestServer(t, new(mockProcessor))
	srv.taskStore.CreateTask("done", time.Minute)
	require.NoError(t, srv.taskStore.UpdateTaskResult("done", resultWithGroups(15)))
	srv.taskStore.CreateTask("pending", time.Minute)

	get := func(path string) *httptest.ResponseRecorder {
		return serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
	}

	decode := func(t *testing.T, rr *httptest.ResponseRecorder) TaskResultResponse {
		t.Helper()
		require.Equal(t, http.StatusOK, rr.Code)
		var resp TaskResultResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		return resp
	}

	t.Run("вторая страница", func(t *testing.T) {
		resp := decode(t, get("/api/v1/tasks/done/result?page=2&page_size=5"))

		assert.Equal(t, Pagination{CurrentPage: 2, PageSize: 5, TotalItems: 15, TotalPages: 3}, resp.Pagination)
		require.Len(t, resp.GroupedMessages, 5)
		assert.Equal(t, "5", resp.GroupedMessages[0][0].ID)
		assert.Equal(t, "9", resp.GroupedMessages[4][0].ID)
		assert.Equal(t, "ticket-1", resp.Ticket["name"])
		assert.Len(t, resp.Warnings, 1)
	})

	t.Run("значения по умолчанию", func(t *testing.T) {
		resp := decode(t, get("/api/v1/tasks/done/result"))

		assert.Equal(t, Pagination{CurrentPage: 1, PageSize: 50, TotalItems: 15, TotalPages: 1}, resp.Pagination)
		assert.Len(t, resp.GroupedMessages, 15)
	})

	t.Run("страница за пределами", func(t *testing.T) {
		resp := decode(t, get("/api/v1/tasks/done/result?page=10&page_size=5"))

		assert.NotNil(t, resp.GroupedMessages)
		assert.Empty(t, resp.GroupedMessages)
		assert.Equal(t, 3, resp.Pagination.TotalPages)
	})

	t.Run("очень большой номер страницы", func(t *testing.T) {
		for _, page := range []string{"2305843009213693953", "9223372036854775807"} {
			rr := get("/api/v1/tasks/done/result?page_size=4&page=" + page)
			require.Equal(t, http.StatusOK, rr.Code, page)

			resp := decode(t, rr)
			assert.Empty(t, resp.GroupedMessages, page)
			assert.Equal(t, 15, resp.Pagination.TotalItems)
			assert.Equal(t, 4, resp.Pagination.TotalPages)
		}
	})

	t.Run("некорректные параметры", func(t *testing.T) {
		for _, query := range []string{"page=0", "page=abc", "page_size=0", "page_size=501", "page_size=-1"} {
			assert.Equal(t, http.StatusBadRequest, get("/api/v1/tasks/done/result?"+query).Code, query)
		}
	})

	t.Run("задача не завершена", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get("/api/v1/tasks/pending/result").Code)
	})

	t.Run("задача не найдена", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/api/v1/tasks/missing/result").Code)
	})
}
