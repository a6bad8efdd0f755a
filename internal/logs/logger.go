package logs

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.Mutex
	logger = log.New(os.Stdout, "", 0)
)

// SetOutput перенаправляет журнал (используется в тестах).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

// EnableFile дублирует журнал в файл с ротацией. Возвращает writer для закрытия.
func EnableFile(path string) io.Closer {
	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // мегабайт
		MaxBackups: 5,
		MaxAge:     28, // дней
		Compress:   true,
	}
	SetOutput(io.MultiWriter(os.Stdout, rotating))
	return rotating
}

// Writer возвращает текущий приемник журнала, например для middleware.Logger.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return logger.Writer()
}

func LogJSON(level, message string, fields map[string]interface{}) {
	logEntry := map[string]interface{}{
		"severity": level, // "DEBUG", "INFO", "WARN", "ERROR" & "FATAL"
		"message":  message,
		"time":     time.Now().Format(time.RFC3339),
	}
	for k, v := range fields {
		logEntry[k] = v
	}
	jsonLog, err := json.Marshal(logEntry)
	if err != nil {
		jsonLog, _ = json.Marshal(map[string]interface{}{
			"severity": level,
			"message":  message,
			"error":    err.Error(),
		})
	}

	mu.Lock()
	l := logger
	mu.Unlock()
	l.Println(string(jsonLog))
}
