package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"noiportal/pkg/noi"
	"noiportal/process/report"
	"noiportal/process/storeopen"
)

func main() {
	backend := flag.String("backend", "gorm", "record store backend: csv or gorm")
	driver := flag.String("driver", "postgres", "database driver for the gorm backend: postgres or sqlite")
	logPath := flag.String("log", "NOI_log.csv", "flat log path for the csv backend")
	month := flag.String("month", "", "restrict listing to a month (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	xlsx := flag.String("xlsx", "", "export the whole log to this .xlsx file")
	flag.Parse()

	store, err := storeopen.Open(*backend, *driver, os.Getenv("DB_DSN"), *logPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	if *xlsx != "" {
		n, err := report.ExportXLSX(store, *xlsx)
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		fmt.Printf("exported %d records to %s\n", n, *xlsx)
		return
	}

	totals, err := report.Summary(store)
	if err != nil {
		log.Fatalf("summary failed: %v", err)
	}
	for _, t := range totals {
		fmt.Printf("%s  records=%d  total=%s\n", t.Month, t.Count, noi.FormatAmount(t.AmountCents))
	}

	if *list {
		if *month == "" {
			log.Fatal("--list requires --month (YYYY-MM)")
		}
		rows, err := report.MonthRecords(store, *month)
		if err != nil {
			log.Fatalf("fetch rows failed: %v", err)
		}
		for _, r := range rows {
			fmt.Printf("%s|%s|%s|%s|%s\n", r.SerialNo, r.Date.Format(noi.DateLayout), r.SupplierName, noi.FormatAmount(r.AmountCents), r.InvoiceFile)
		}
	}
}
