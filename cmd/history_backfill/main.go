package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/app"
	"github.com/yungbote/materials-registry/internal/services"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func main() {
	var materials idList
	var dryRun bool
	var limit int
	var actor string
	flag.Var(&materials, "material", "material id to snapshot (repeatable or comma separated)")
	flag.BoolVar(&dryRun, "dry-run", false, "build snapshots without writing history records")
	flag.IntVar(&limit, "limit", 0, "limit number of materials processed")
	flag.StringVar(&actor, "actor", "", "actor id recorded on the history records")
	flag.Parse()

	in := services.BackfillInput{Limit: limit, DryRun: dryRun}
	if actor != "" {
		id, err := uuid.Parse(strings.TrimSpace(actor))
		if err != nil {
			fmt.Printf("invalid -actor: %v\n", err)
			os.Exit(2)
		}
		in.ActorID = id
	}
	for _, raw := range materials {
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			fmt.Printf("skipping invalid material id %q\n", raw)
			continue
		}
		in.MaterialIDs = append(in.MaterialIDs, id)
	}
	if len(materials) > 0 && len(in.MaterialIDs) == 0 {
		fmt.Println("no valid material id values provided")
		return
	}
	if limit > 0 && len(in.MaterialIDs) > limit {
		in.MaterialIDs = in.MaterialIDs[:limit]
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	report, err := application.Services.History.Backfill(context.Background(), in)
	if report != nil {
		failed := make([]string, 0, len(report.Failures))
		for id, msg := range report.Failures {
			failed = append(failed, fmt.Sprintf("%s: %s", id, msg))
		}
		sort.Strings(failed)
		for _, line := range failed {
			fmt.Printf("failed %s\n", line)
		}
		fmt.Printf("done; selected=%d written=%d failed=%d dry_run=%v\n", report.Selected, report.Written, report.Failed, dryRun)
	}
	if err != nil {
		fmt.Printf("backfill: %v\n", err)
		application.Close()
		os.Exit(1)
	}
}
