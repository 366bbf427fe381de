package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"noiportal/process/reconcile"
	"noiportal/process/storeopen"
)

func main() {
	backend := flag.String("backend", "gorm", "record store backend: csv or gorm")
	driver := flag.String("driver", "postgres", "database driver for the gorm backend: postgres or sqlite")
	logPath := flag.String("log", "NOI_log.csv", "flat log path for the csv backend")
	dir := flag.String("dir", "invoices", "attachment directory")
	tempAge := flag.Duration("temp-age", time.Hour, "staged temp files older than this are stale")
	rmStale := flag.Bool("rm-stale", false, "delete stale staged temp files")
	watch := flag.Bool("watch", false, "keep running and re-scan on directory changes")
	flag.Parse()

	store, err := storeopen.Open(*backend, *driver, os.Getenv("DB_DSN"), *logPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	rep, err := reconcile.Scan(store, *dir, *tempAge)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}
	reconcile.LogReport(rep)
	if *rmStale {
		n := reconcile.RemoveStaleTemps(*dir, rep)
		fmt.Printf("removed %d stale temp files\n", n)
	}

	if *watch {
		stop := make(chan struct{})
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			close(stop)
		}()
		if err := reconcile.Watch(store, *dir, 2*time.Second, stop); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}
