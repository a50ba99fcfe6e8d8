package observability

import (
	"log"
	"os"
)

type StdLogger struct {
	out *log.Logger
}

func NewLogger() *StdLogger {
	return &StdLogger{out: log.New(os.Stdout, "", log.LstdFlags|log.LUTC)}
}

func (l *StdLogger) Info(msg string) {
	l.out.Println("INFO " + msg)
}

func (l *StdLogger) Error(msg string) {
	l.out.Println("ERROR " + msg)
}
