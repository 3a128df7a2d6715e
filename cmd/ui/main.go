// Command ui serves the training monitor that cmd/train reports to.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FlavioCFOliveira/winequality/internal/logging"
	"github.com/FlavioCFOliveira/winequality/internal/monitor"
)

var log = logging.New("ui")

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	db := flag.String("db", "data/ui/stats.db", "SQLite database for received stats")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := serve(ctx, *addr, *db)
	stop()
	os.Exit(code)
}

// serve runs the UI until ctx is done and returns the exit code.
func serve(ctx context.Context, addr, db string) int {
	storage, err := monitor.OpenStorage(db)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	defer storage.Close()

	ui := monitor.NewServer(storage)
	srv := &http.Server{Addr: addr, Handler: ui, ReadHeaderTimeout: 10 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		ui.Close()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Infof("Serving UI at http://localhost%s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("%v", err)
		return 1
	}
	<-done
	return 0
}
