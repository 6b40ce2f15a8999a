package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/econbrief/internal/sources"
)

func crawlOptions(archiveDate string) (sources.Options, error) {
	archiveDate = strings.TrimSpace(archiveDate)
	if archiveDate == "" {
		return sources.Options{}, nil
	}
	d, err := time.Parse(time.DateOnly, archiveDate)
	if err != nil {
		return sources.Options{}, fmt.Errorf("invalid --archive-date %q: want YYYY-MM-DD", archiveDate)
	}
	return sources.Options{ArchiveDate: d}, nil
}
