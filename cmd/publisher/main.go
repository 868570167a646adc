package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/example/library-service/internal/adapter/natsstan"
	"github.com/example/library-service/internal/config"
	"github.com/example/library-service/internal/domain"
	"github.com/example/library-service/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// publisher читает книгу или массив книг в JSON из stdin и публикует
// каждую в subject импорта книг.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err.Error())
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, "text")

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Error("read stdin", "error", err.Error())
		os.Exit(1)
	}
	messages, err := splitBooks(data)
	if err != nil {
		log.Error("parse books", "error", err.Error())
		os.Exit(1)
	}

	sc, err := natsstan.Connect(cfg.NATS.ClusterID, getenv("STAN_PUB_ID", "library-publisher"), cfg.NATS.URL)
	if err != nil {
		log.Error("connect", "error", err.Error())
		os.Exit(1)
	}
	defer sc.Close()

	for _, m := range messages {
		if err := sc.Publish(cfg.NATS.ImportSubject, m); err != nil {
			log.Error("publish", "error", err.Error())
			os.Exit(1)
		}
	}
	log.Info("published", "messages", len(messages), "subject", cfg.NATS.ImportSubject)
}

// splitBooks принимает один объект или массив объектов и возвращает по сообщению на книгу.
func splitBooks(data []byte) ([][]byte, error) {
	data = bytes.TrimSpace(data)
	var books []domain.BookInput
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &books); err != nil {
			return nil, err
		}
	} else {
		var b domain.BookInput
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	out := make([][]byte, 0, len(books))
	for _, b := range books {
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
