package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"transcript-formatter/internal/cache"
)

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	WarningCount int    `json:"warning_count"`
}

func main() {
	var (
		serverAddr   string
		pollInterval time.Duration
		page         int
		pageSize     int
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.DurationVar(&pollInterval, "poll", 2*time.Second, "Task status poll interval")
	flag.IntVar(&page, "page", 1, "Result page")
	flag.IntVar(&pageSize, "page-size", 50, "Message groups per page")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Transcript file path is required. Usage: client [flags] <transcript.json>")
	}
	path := flag.Arg(0)

	taskID, err := submitByHash(serverAddr, path)
	if err != nil {
		log.Fatal(err)
	}
	if taskID == "" {
		if taskID, err = upload(serverAddr, path); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Задача создана с идентификатором: %s\n", taskID)

	// Опрос о статусе задачи
	for {
		time.Sleep(pollInterval)

		status, err := fetchStatus(serverAddr, taskID)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("Статус задачи: %s\n", status.Status)

		switch status.Status {
		case "completed":
			fmt.Printf("Задача выполнена, предупреждений: %d\n", status.WarningCount)
			result, err := fetchResult(serverAddr, taskID, page, pageSize)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(string(result))
			return
		case "failed":
			fmt.Printf("Задача не выполнена: %s\n", status.ErrorMessage)
			os.Exit(1)
		case "pending", "processing":
			continue
		default:
			log.Fatalf("Неизвестный статус задачи: %s", status.Status)
		}
	}
}

// submitByHash запрашивает ранее кешированный результат по хешу файла.
// Возвращает пустой идентификатор, если сервер не нашел результат в кеше.
func submitByHash(serverAddr, path string) (string, error) {
	hash, err := cache.CalculateFileHash(path)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]string{"hash": hash})
	if err != nil {
		return "", fmt.Errorf("не удалось сформировать запрос: %w", err)
	}

	resp, err := http.Post(serverAddr+"/api/v1/format-by-hash", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("не удалось отправить запрос: %w", err)
	}
	defer resp.Body.Close()

	taskID, err := decodeTaskID(resp)
	if err != nil {
		return "", err
	}

	// Задача по хешу завершается сразу: успешно при попадании в кеш, иначе с ошибкой
	status, err := fetchStatus(serverAddr, taskID)
	if err != nil {
		return "", err
	}
	if status.Status != "completed" {
		return "", nil
	}
	fmt.Printf("Результат найден в кеше по хешу %s\n", hash)
	return taskID, nil
}

// upload отправляет файл транскрипта на сервер
func upload(serverAddr, path string) (string, error) {
	body, contentType, err := buildUpload(path)
	if err != nil {
		return "", err
	}

	resp, err := http.Post(serverAddr+"/api/v1/format", contentType, body)
	if err != nil {
		return "", fmt.Errorf("не удалось отправить запрос: %w", err)
	}
	defer resp.Body.Close()

	return decodeTaskID(resp)
}

func decodeTaskID(resp *http.Response) (string, error) {
	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("сервер вернул статус: %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var taskResp map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&taskResp); err != nil {
		return "", fmt.Errorf("не удалось декодировать ответ: %w", err)
	}
	if taskResp["task_id"] == "" {
		return "", fmt.Errorf("идентификатор задачи не найден в ответе")
	}
	return taskResp["task_id"], nil
}

// buildUpload формирует multipart-форму с файлом транскрипта
func buildUpload(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("не удалось открыть файл %s: %w", path, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("не удалось создать файл формы: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("не удалось записать данные файла %s: %w", path, err)
	}

	// Важно закрыть writer, чтобы записать завершающую границу
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("не удалось закрыть multipart writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

func fetchStatus(serverAddr, taskID string) (*TaskStatusResponse, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/%s", serverAddr, taskID))
	if err != nil {
		return nil, fmt.Errorf("не удалось опросить статус задачи: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	var status TaskStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("не удалось декодировать ответ статуса: %w", err)
	}
	return &status, nil
}

func fetchResult(serverAddr, taskID string, page, pageSize int) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/tasks/%s/result?page=%d&page_size=%d", serverAddr, taskID, page, pageSize)
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить результат: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервер вернул статус для результата: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать тело результата: %w", err)
	}
	return data, nil
}
