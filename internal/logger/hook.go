package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncHook là một hook để ghi log bất đồng bộ, tránh blocking request handling.
// Hook format entry ngay trong Fire rồi buffer dòng đã format, goroutine riêng
// chỉ làm việc ghi vào các writers.
type AsyncHook struct {
	writers []io.Writer // Danh sách các writers (file, stdout, ...)
	lines   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewAsyncHookWithWriters tạo một async hook mới với nhiều writers.
// bufferSize: kích thước buffer cho log lines (mặc định 1000).
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	hook := &AsyncHook{
		writers: writers,
		lines:   make(chan []byte, bufferSize),
	}

	hook.wg.Add(1)
	go hook.processLines()

	return hook
}

// Levels trả về các log levels mà hook này xử lý
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire format entry đồng bộ rồi đưa dòng vào channel, không block.
// Format phải xảy ra ở đây: entry thuộc về logrus và có thể bị tái sử dụng
// ngay sau khi Fire trả về. Buffer đầy thì drop (ghi cảnh báo ra stderr).
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil
	}

	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}

	select {
	case h.lines <- line:
	default:
		fmt.Fprintf(os.Stderr, "logger: async buffer full, dropping entry: %s\n", entry.Message)
	}
	return nil
}

// processLines ghi tuần tự các dòng đã buffer vào tất cả writers.
func (h *AsyncHook) processLines() {
	defer h.wg.Done()
	for line := range h.lines {
		for _, w := range h.writers {
			_, _ = w.Write(line)
		}
	}
}

// Close dừng hook và chờ ghi hết các dòng còn trong buffer.
func (h *AsyncHook) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	close(h.lines)
	h.wg.Wait()
}
