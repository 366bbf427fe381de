// Package reconcile checks the record log against the attachment directory
// and repairs what it safely can: the one inconsistency the portal's design
// admits is a committed row whose attachment rename failed, plus staged temp
// files left behind by a crash mid-submission.
package reconcile

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"noiportal/pkg/noi"
)

// loadLimit bounds how much of the log one scan reads.
const loadLimit = 100000

// Report is the outcome of one consistency scan.
type Report struct {
	// MissingFiles lists records whose attachment is absent on disk.
	MissingFiles []noi.Record
	// Orphans lists attachment files no record references.
	Orphans []string
	// StaleTemps lists staged temp files older than the scan cutoff,
	// i.e. debris from submissions that never reached their rename.
	StaleTemps []string
}

func (r Report) Clean() bool {
	return len(r.MissingFiles) == 0 && len(r.Orphans) == 0 && len(r.StaleTemps) == 0
}

// Scan compares every record against the attachment directory. Temp files
// younger than tempAge are ignored: they may belong to an in-flight
// submission.
func Scan(store noi.RecordStore, dir string, tempAge time.Duration) (Report, error) {
	var rep Report

	recs, err := store.Recent(loadLimit)
	if err != nil {
		return rep, err
	}
	referenced := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if rec.InvoiceFile == "" {
			continue
		}
		referenced[rec.InvoiceFile] = true
		if _, err := os.Stat(filepath.Join(dir, rec.InvoiceFile)); err != nil {
			rep.MissingFiles = append(rep.MissingFiles, rec)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return rep, nil
		}
		return rep, err
	}
	cutoff := time.Now().Add(-tempAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, noi.StageTempPrefix) {
			info, err := e.Info()
			if err == nil && info.ModTime().Before(cutoff) {
				rep.StaleTemps = append(rep.StaleTemps, name)
			}
			continue
		}
		if !referenced[name] {
			rep.Orphans = append(rep.Orphans, name)
		}
	}
	return rep, nil
}

// RemoveStaleTemps deletes the staged temp files a scan flagged. Orphans and
// missing files are only ever reported: records are append-only and an
// unreferenced file may be evidence an operator wants to keep.
func RemoveStaleTemps(dir string, rep Report) int {
	removed := 0
	for _, name := range rep.StaleTemps {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			log.Printf("remove stale temp %s: %v", name, err)
			continue
		}
		removed++
	}
	return removed
}

// LogReport prints a scan's findings, one loud line per defect.
func LogReport(rep Report) {
	for _, rec := range rep.MissingFiles {
		log.Printf("MISSING ATTACHMENT: record %s references %s which does not exist", rec.SerialNo, rec.InvoiceFile)
	}
	for _, name := range rep.Orphans {
		log.Printf("orphan file: %s has no record", name)
	}
	for _, name := range rep.StaleTemps {
		log.Printf("stale staged temp: %s", name)
	}
	if rep.Clean() {
		log.Printf("log and attachment directory are consistent")
	}
}

// Watch follows the attachment directory and re-scans after each burst of
// file events, so a failed rename surfaces in the logs within settle rather
// than at the next manual run. Returns when stop is closed.
func Watch(store noi.RecordStore, dir string, settle time.Duration, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(settle, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		case <-fire:
			rep, err := Scan(store, dir, settle)
			if err != nil {
				log.Printf("scan failed: %v", err)
				continue
			}
			LogReport(rep)
		case <-stop:
			return nil
		}
	}
}
