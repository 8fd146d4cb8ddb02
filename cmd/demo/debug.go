package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

type debugMsgType int

const (
	writeDebug debugMsgType = iota
	syncDebug
)

type debugMessage struct {
	msgType debugMsgType
	payload interface{}
}

// debugLog dumps JSON payloads, one per line, from a single goroutine. A nil
// debugLog discards everything.
type debugLog struct {
	msgs chan<- debugMessage
	done <-chan struct{}
}

func (d *debugLog) write(x interface{}) {
	if d != nil {
		d.msgs <- debugMessage{msgType: writeDebug, payload: x}
	}
}

func (d *debugLog) sync() {
	if d != nil {
		d.msgs <- debugMessage{msgType: syncDebug}
	}
}

// close flushes pending messages and waits for the writer to finish.
func (d *debugLog) close() {
	if d != nil {
		close(d.msgs)
		<-d.done
	}
}

type syncer interface {
	Sync() error
}

func runDebug(w io.WriteCloser, logger *zap.Logger) *debugLog {
	ch := make(chan debugMessage, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			switch msg.msgType {
			case writeDebug:
				if bs, err := json.Marshal(msg.payload); err != nil {
					logger.Error("error while writing to debug file", zap.Error(err))
				} else {
					w.Write(bs)
					io.WriteString(w, "\n")
				}
			case syncDebug:
				if s, ok := w.(syncer); ok {
					s.Sync()
				}
			}
		}
		w.Close()
	}()
	return &debugLog{msgs: ch, done: done}
}

func createDebug(cfg config, logger *zap.Logger) *debugLog {
	if !cfg.Debug {
		return nil
	}
	filename := cfg.DebugFile
	if filename == "" {
		datetime := time.Now().Format("2006-01-02T15:04:05")
		filename = fmt.Sprintf("log_%s.jsonl", datetime)
	}
	f, err := os.Create(filename)
	if err != nil {
		logger.Error("error opening debug file", zap.String("file", filename), zap.Error(err))
		return nil
	}
	logger.Info("writing debug information", zap.String("file", filename))
	return runDebug(f, logger)
}
